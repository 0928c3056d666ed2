package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/passlock/internal/common"
	"github.com/dmitrijs2005/passlock/internal/filex"
)

// backupDir resolves the backup directory: the configured path, or a
// "backups" sibling of the container by default.
func (s *Store) backupDir() string {
	if s.cfg.BackupPath != "" {
		return s.cfg.BackupPath
	}
	return filepath.Join(filepath.Dir(s.dbPath), "backups")
}

// createBackup copies the current container into the backup directory
// under a timestamped name and then prunes old backups down to the
// configured retention count.
func (s *Store) createBackup() error {
	dir := s.backupDir()
	if err := filex.EnsureDir(dir); err != nil {
		return fmt.Errorf("creating backup dir: %w", err)
	}

	base := filepath.Base(s.dbPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := fmt.Sprintf("%s_%s%s", stem, time.Now().Format("20060102_150405"), common.BackupExt)

	if err := filex.CopyFile(s.dbPath, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("copying backup: %w", err)
	}

	return s.pruneBackups(dir)
}

// pruneBackups keeps the newest cfg.BackupCount backup files and removes
// the rest, newest-first by modification time.
func (s *Store) pruneBackups(dir string) error {
	keep := s.cfg.BackupCount
	if keep <= 0 {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}

	type backup struct {
		path    string
		modTime time.Time
	}
	var backups []backup
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), common.BackupExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{filepath.Join(dir, e.Name()), info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})

	for _, b := range backups[min(keep, len(backups)):] {
		if err := os.Remove(b.path); err != nil {
			return fmt.Errorf("removing old backup %s: %w", b.path, err)
		}
	}
	return nil
}

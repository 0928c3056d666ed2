// Package store implements the encrypted record store: the lifecycle of
// one vault bound to a derived key and an on-disk container path, with
// backup rotation on every write and best-effort replication.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/passlock/internal/cloudsync"
	"github.com/dmitrijs2005/passlock/internal/common"
	"github.com/dmitrijs2005/passlock/internal/config"
	"github.com/dmitrijs2005/passlock/internal/cryptox"
	"github.com/dmitrijs2005/passlock/internal/filex"
	"github.com/dmitrijs2005/passlock/internal/logging"
	"github.com/dmitrijs2005/passlock/internal/shared"
	"github.com/dmitrijs2005/passlock/internal/vault"
)

// State tracks the session lifecycle. Only an open store permits record
// mutation; closing stops any background replication for the session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateOpen          State = "open"
	StateClosed        State = "closed"
)

// ErrNotOpen is returned by operations that require an open session.
var ErrNotOpen = errors.New("database is not open")

// Store owns the in-memory vault and its derived key exclusively. All
// mutation goes through its public operations; it is the sole writer of
// the container and backup files.
type Store struct {
	cfg    *config.Config
	log    logging.Logger
	syncer *cloudsync.Manager

	state  State
	vault  *vault.Vault
	key    []byte
	salt   []byte
	dbPath string
}

func New(cfg *config.Config, log logging.Logger) *Store {
	return &Store{
		cfg:    cfg,
		log:    log,
		syncer: cloudsync.NewManager(cfg, log),
		state:  StateUninitialized,
	}
}

// State returns the current session state.
func (s *Store) State() State {
	return s.state
}

// Path returns the authoritative container path of the open session.
func (s *Store) Path() string {
	return s.dbPath
}

// Create initializes a new database at path, protected by masterSecret.
//
// When replication redirects to a different physical location than the
// caller specified, the container is written at the caller's path first
// and then copied to the replication target; only if that copy succeeds
// does the configured authoritative path switch to the target. On copy
// failure the caller's path stays authoritative.
func (s *Store) Create(ctx context.Context, path, masterSecret, totpSecret, owner string) error {
	// The configured path is not persisted until the first save succeeds;
	// a failed create must not leave configuration pointing at a database
	// that was never written.
	prevPath := s.cfg.DatabasePath
	s.cfg.DatabasePath = path
	s.dbPath = path

	key, salt, err := cryptox.DeriveKey(masterSecret, nil)
	if err != nil {
		s.cfg.DatabasePath = prevPath
		return fmt.Errorf("%w: %w", common.ErrUnknown, err)
	}
	s.key = key
	s.salt = salt
	s.vault = vault.New(totpSecret, owner)
	s.state = StateOpen

	if err := s.Save(ctx); err != nil {
		s.cfg.DatabasePath = prevPath
		s.reset()
		return err
	}

	if err := s.cfg.SetDatabasePath(path); err != nil {
		return fmt.Errorf("%w: %w", common.ErrWrite, err)
	}

	if s.syncer.Enabled() {
		effective := s.cfg.EffectiveDatabasePath()
		if effective != s.dbPath && filex.Exists(s.dbPath) {
			if err := s.copyToReplicationTarget(ctx, effective); err != nil {
				s.log.Warn(ctx, "copy to replication target failed, keeping local path", "error", err)
				// Configuration keeps pointing at the caller's path.
			}
		}
	}

	s.log.Info(ctx, "database created", "path", s.dbPath)
	return nil
}

func (s *Store) copyToReplicationTarget(ctx context.Context, target string) error {
	if err := filex.EnsureParentDir(target); err != nil {
		return err
	}
	if err := filex.CopyFile(s.dbPath, target); err != nil {
		return err
	}
	s.dbPath = target
	if err := s.cfg.SetDatabasePath(target); err != nil {
		return err
	}
	s.log.Info(ctx, "database copied to replication target", "path", target)
	return nil
}

// Open loads an existing database. The replication-resolved path is
// preferred when a file exists there; otherwise the caller's path is
// used. Failures carry a typed error: ErrFileNotFound, ErrDataCorrupted,
// ErrInvalidKey, ErrPermissionDenied or ErrUnknown. On any failure the
// store keeps no partial state.
func (s *Store) Open(ctx context.Context, path, masterSecret string) error {
	dbPath := path

	if s.syncer.Enabled() {
		cloudPath := s.cfg.EffectiveDatabasePath()

		if s.cfg.CloudStorage.SyncOnOpen {
			// Empty destination lets the engine pick a safe local target.
			if err := s.syncer.Pull(ctx, ""); err != nil {
				s.log.Warn(ctx, "pull on open failed", "error", err)
			}
		}

		switch {
		case filex.Exists(cloudPath):
			dbPath = cloudPath
		case filex.Exists(path):
			dbPath = path
		default:
			return fmt.Errorf("%w: neither %s nor %s exists", common.ErrFileNotFound, cloudPath, path)
		}
	} else if !filex.Exists(dbPath) {
		return fmt.Errorf("%w: %s", common.ErrFileNotFound, dbPath)
	}

	data, err := os.ReadFile(dbPath)
	if err != nil {
		return classifyReadErr(err)
	}

	if len(data) <= common.SaltSize {
		return fmt.Errorf("%w: file %s is too short (%d bytes)", common.ErrDataCorrupted, dbPath, len(data))
	}
	salt, blob := data[:common.SaltSize], data[common.SaltSize:]

	key, salt, err := cryptox.DeriveKey(masterSecret, salt)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnknown, err)
	}

	plaintext, err := cryptox.Decrypt(blob, key)
	if err != nil {
		return fmt.Errorf("%w: cannot decrypt %s", common.ErrInvalidKey, dbPath)
	}

	v, err := vault.Unmarshal(plaintext)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrDataCorrupted, err)
	}

	// Belt-and-suspenders: beyond the cryptographic proof above, the
	// stored second-factor secret must match the supplied credential.
	if v.TOTPSecret != "" {
		if strings.TrimSpace(v.TOTPSecret) != strings.TrimSpace(masterSecret) {
			return fmt.Errorf("%w: stored second-factor secret does not match", common.ErrInvalidKey)
		}
	}

	s.dbPath = dbPath
	s.key = key
	s.salt = salt
	s.vault = v
	s.state = StateOpen

	if s.syncer.Enabled() {
		s.syncer.StartAutoSync(ctx)
	}

	s.log.Info(ctx, "database opened", "path", dbPath, "records", len(v.Passwords))
	return nil
}

// Save persists the vault: refresh its last-modified timestamp, encrypt
// under the session key, back up any pre-existing container, and write
// salt+ciphertext to the authoritative path. The local write is the
// durability boundary; the sync-on-save push is best-effort and its
// failure never fails the save.
func (s *Store) Save(ctx context.Context) error {
	if s.state != StateOpen {
		return ErrNotOpen
	}

	s.vault.Touch()

	plaintext, err := s.vault.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnknown, err)
	}

	blob, err := cryptox.Encrypt(plaintext, s.key)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnknown, err)
	}

	if filex.Exists(s.dbPath) && s.cfg.BackupEnabled {
		if err := s.createBackup(); err != nil {
			s.log.Warn(ctx, "backup failed", "error", err)
		}
	}

	if err := filex.EnsureParentDir(s.dbPath); err != nil {
		return classifyWriteErr(err)
	}

	container := make([]byte, 0, len(s.salt)+len(blob))
	container = append(container, s.salt...)
	container = append(container, blob...)
	if err := os.WriteFile(s.dbPath, container, 0o600); err != nil {
		return classifyWriteErr(err)
	}

	if s.syncer.Enabled() && s.cfg.CloudStorage.SyncOnSave {
		if err := s.syncer.Push(ctx, s.dbPath); err != nil {
			s.log.Warn(ctx, "push on save failed", "error", err)
		}
	}

	return nil
}

// Close ends the session: background replication stops and the derived
// key is wiped from memory.
func (s *Store) Close(ctx context.Context) {
	s.syncer.StopAutoSync()
	s.reset()
	s.state = StateClosed
	s.log.Info(ctx, "database closed")
}

func (s *Store) reset() {
	shared.WipeByteArray(s.key)
	s.key = nil
	s.salt = nil
	s.vault = nil
	s.dbPath = ""
	s.state = StateUninitialized
}

func classifyReadErr(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %w", common.ErrFileNotFound, err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %w", common.ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %w", common.ErrUnknown, err)
	}
}

func classifyWriteErr(err error) error {
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %w", common.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %w", common.ErrWrite, err)
}

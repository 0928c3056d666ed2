package config

import (
	"path/filepath"

	"github.com/dmitrijs2005/passlock/internal/common"
	"github.com/dmitrijs2005/passlock/internal/filex"
)

// DatabaseFileName returns the base filename of the database, falling back
// to the default name when no path was ever configured.
func (c *Config) DatabaseFileName() string {
	if c.DatabasePath != "" {
		return filepath.Base(c.DatabasePath)
	}
	return common.DefaultDBFileName
}

// EffectiveDatabasePath computes the single authoritative path for the
// database file given the current configuration. It is recomputed on every
// call — never cached — because configuration or remote-folder
// availability may change between calls.
//
// Resolution order:
//   - cloud sync disabled: the configured local path, or a synthesized
//     default inside the config directory if none was ever set;
//   - cloud enabled, network-drive kind: the network folder joined with
//     the database filename, but only if that folder currently exists;
//   - cloud enabled, remote-folder kinds: same with the remote folder;
//   - chosen folder missing: a local cache folder (auto-created).
func (c *Config) EffectiveDatabasePath() string {
	name := c.DatabaseFileName()

	if c.CloudStorage.Enabled {
		switch c.CloudStorage.Type {
		case StorageNetworkDrive:
			if p := c.CloudStorage.NetworkDrivePath; p != "" && filex.Exists(p) {
				return filepath.Join(p, name)
			}
		case StorageOneDrive, StorageDropbox, StorageSyncFolder:
			if p := c.CloudStorage.RemotePath; p != "" && filex.Exists(p) {
				return filepath.Join(p, name)
			}
		}

		cache := c.CloudStorage.LocalCachePath
		if cache == "" {
			cache = filepath.Join(c.configDir, "cache")
		}
		_ = filex.EnsureDir(cache)
		return filepath.Join(cache, name)
	}

	if c.DatabasePath == "" {
		return filepath.Join(c.configDir, name)
	}
	return c.DatabasePath
}

// RemoteDatabasePath computes the replica path for the configured storage
// kind, without any existence fallback. It returns "" when no remote
// folder is configured for the current kind.
func (c *Config) RemoteDatabasePath() string {
	name := c.DatabaseFileName()

	switch c.CloudStorage.Type {
	case StorageNetworkDrive:
		if p := c.CloudStorage.NetworkDrivePath; p != "" {
			return filepath.Join(p, name)
		}
	case StorageOneDrive, StorageDropbox, StorageSyncFolder:
		if p := c.CloudStorage.RemotePath; p != "" {
			return filepath.Join(p, name)
		}
	}
	return ""
}

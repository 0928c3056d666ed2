// Package config holds runtime settings for PassLock and the path
// resolution policy that decides which concrete file is authoritative for
// the database at any moment.
//
// Configuration is a typed struct persisted as JSON in the application's
// private config directory. Loading applies defaults first and overlays
// the file on top, so missing keys inherit defaults (recursively for the
// cloud-storage group) and present keys override them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/passlock/internal/flagx"
)

// Storage kinds for the cloud-storage group. The remote-folder kinds all
// share the same behavior; the distinction is only which configuration key
// names the folder.
const (
	StorageLocal        = "local"
	StorageNetworkDrive = "network_drive"
	StorageOneDrive     = "onedrive"
	StorageDropbox      = "dropbox"
	StorageSyncFolder   = "sync_folder"
)

// Conflict resolution policies applied when pulling over an existing
// local file.
const (
	ConflictNewer  = "newer"
	ConflictLocal  = "local"
	ConflictRemote = "remote"
	ConflictAsk    = "ask"
)

const configFileName = "config.json"

// CloudStorage is the nested replication configuration group.
type CloudStorage struct {
	Enabled            bool   `json:"enabled"`
	Type               string `json:"type"`
	SyncOnSave         bool   `json:"sync_on_save"`
	SyncOnOpen         bool   `json:"sync_on_open"`
	AutoSyncInterval   int    `json:"auto_sync_interval"` // seconds, 0 disables
	ConflictResolution string `json:"conflict_resolution"`
	LocalCachePath     string `json:"local_cache_path"`
	RemotePath         string `json:"remote_path"`
	NetworkDrivePath   string `json:"network_drive_path"`
	LastSyncTime       string `json:"last_sync_time"`
	SyncEnabled        bool   `json:"sync_enabled"`
}

// Config is the application configuration surface consumed by the record
// store and the replication engine. It is passed by pointer to every
// component that needs it; there is no ambient/static access.
type Config struct {
	DatabasePath  string       `json:"database_path"`
	BackupEnabled bool         `json:"backup_enabled"`
	BackupPath    string       `json:"backup_path"`
	BackupCount   int          `json:"backup_count"`
	CloudStorage  CloudStorage `json:"cloud_storage"`

	mu         sync.Mutex
	configDir  string
	configFile string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = ""
	c.BackupEnabled = true
	c.BackupPath = ""
	c.BackupCount = 5
	c.CloudStorage = CloudStorage{
		Enabled:            false,
		Type:               StorageLocal,
		SyncOnSave:         true,
		SyncOnOpen:         true,
		AutoSyncInterval:   300,
		ConflictResolution: ConflictNewer,
		SyncEnabled:        true,
	}
}

// Load constructs a Config bound to the given directory, applies defaults,
// then overlays values from its config.json if one exists. An empty dir
// selects the default per-user location (~/.passlock), unless a config
// file was named explicitly with the -c/-config flags.
func Load(dir string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	file := flagx.JsonConfigFlags()
	switch {
	case file != "":
		cfg.configDir = filepath.Dir(file)
		cfg.configFile = file
	case dir != "":
		cfg.configDir = dir
		cfg.configFile = filepath.Join(dir, configFileName)
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home dir: %w", err)
		}
		cfg.configDir = filepath.Join(home, ".passlock")
		cfg.configFile = filepath.Join(cfg.configDir, configFileName)
	}

	if err := os.MkdirAll(cfg.configDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}

	data, err := os.ReadFile(cfg.configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	// Unmarshalling over the defaults keeps default values for any key the
	// file omits, including inside the cloud-storage group.
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// ConfigDir returns the application's private configuration directory.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Save persists the configuration to its JSON file.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *Config) saveLocked() error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(c.configFile, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SetDatabasePath updates the authoritative database path and persists the
// change.
func (c *Config) SetDatabasePath(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DatabasePath = path
	return c.saveLocked()
}

// SetLastSyncTime records the timestamp of the last verified successful
// replication and persists the change.
func (c *Config) SetLastSyncTime(ts string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CloudStorage.LastSyncTime = ts
	return c.saveLocked()
}

// LastSyncTime returns the recorded last-sync timestamp. A background sync
// tick may be writing it concurrently, so reads go through the same lock.
func (c *Config) LastSyncTime() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CloudStorage.LastSyncTime
}

package store

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/passlock/internal/common"
	"github.com/dmitrijs2005/passlock/internal/cryptox"
	"github.com/dmitrijs2005/passlock/internal/shared"
	"github.com/dmitrijs2005/passlock/internal/vault"
)

// Every mutation below persists immediately: the operation's success is
// the save's success.

// AddRecord stores a new credential record and returns it with its
// assigned id and timestamps.
func (s *Store) AddRecord(ctx context.Context, r vault.Record) (vault.Record, error) {
	if s.state != StateOpen {
		return vault.Record{}, ErrNotOpen
	}
	rec := s.vault.AddRecord(r)
	if err := s.Save(ctx); err != nil {
		return vault.Record{}, err
	}
	return rec, nil
}

// UpdateRecord replaces the mutable fields of an existing record.
func (s *Store) UpdateRecord(ctx context.Context, id string, r vault.Record) error {
	if s.state != StateOpen {
		return ErrNotOpen
	}
	if !s.vault.UpdateRecord(id, r) {
		return fmt.Errorf("record %s not found", id)
	}
	return s.Save(ctx)
}

// DeleteRecord removes a record by id.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	if s.state != StateOpen {
		return ErrNotOpen
	}
	if !s.vault.DeleteRecord(id) {
		return fmt.Errorf("record %s not found", id)
	}
	return s.Save(ctx)
}

// Record returns the record with the given id.
func (s *Store) Record(id string) (vault.Record, error) {
	if s.state != StateOpen {
		return vault.Record{}, ErrNotOpen
	}
	rec, ok := s.vault.Record(id)
	if !ok {
		return vault.Record{}, fmt.Errorf("record %s not found", id)
	}
	return rec, nil
}

// Records returns all records in storage order.
func (s *Store) Records() []vault.Record {
	if s.state != StateOpen {
		return nil
	}
	return s.vault.AllRecords()
}

// Search returns the records whose title, username, url or notes contain
// the query, case-insensitively.
func (s *Store) Search(query string) []vault.Record {
	if s.state != StateOpen {
		return nil
	}
	return s.vault.Search(query)
}

// RecordsByCategory returns the records assigned to the given category.
func (s *Store) RecordsByCategory(category string) []vault.Record {
	if s.state != StateOpen {
		return nil
	}
	return s.vault.RecordsByCategory(category)
}

// Categories returns the category list in storage order.
func (s *Store) Categories() []string {
	if s.state != StateOpen {
		return nil
	}
	return s.vault.Categories
}

// AddCategory registers a new category name. Duplicate names are rejected
// without mutating state.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	if s.state != StateOpen {
		return ErrNotOpen
	}
	if !s.vault.AddCategory(name) {
		return fmt.Errorf("category %s already exists", name)
	}
	return s.Save(ctx)
}

// DeleteCategory removes a category; records assigned to it move to the
// fallback category.
func (s *Store) DeleteCategory(ctx context.Context, name string) error {
	if s.state != StateOpen {
		return ErrNotOpen
	}
	if !s.vault.DeleteCategory(name) {
		return fmt.Errorf("category %s not found", name)
	}
	return s.Save(ctx)
}

// RenameCategory renames a category and reassigns its records.
func (s *Store) RenameCategory(ctx context.Context, oldName, newName string) error {
	if s.state != StateOpen {
		return ErrNotOpen
	}
	if err := s.vault.RenameCategory(oldName, newName); err != nil {
		return err
	}
	return s.Save(ctx)
}

// TOTPSecret returns the stored second-factor shared secret.
func (s *Store) TOTPSecret() string {
	if s.state != StateOpen {
		return ""
	}
	return s.vault.TOTPSecret
}

// Owner returns the account label the database was enrolled under.
func (s *Store) Owner() string {
	if s.state != StateOpen {
		return ""
	}
	return s.vault.Username
}

// UpdateTOTPSecret stores a new second-factor shared secret and owner
// label, for re-enrollment. The secret is also the key-derivation input,
// so the container is re-encrypted under a key derived from the new
// secret with a fresh salt.
func (s *Store) UpdateTOTPSecret(ctx context.Context, secret, owner string) error {
	if s.state != StateOpen {
		return ErrNotOpen
	}

	key, salt, err := cryptox.DeriveKey(secret, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnknown, err)
	}

	oldKey, oldSalt := s.key, s.salt
	oldSecret, oldOwner := s.vault.TOTPSecret, s.vault.Username
	s.key = key
	s.salt = salt
	s.vault.TOTPSecret = secret
	s.vault.Username = owner

	// Roll back the vault fields together with the key: a later save of a
	// new stored secret under the old key would produce a container neither
	// secret can open.
	if err := s.Save(ctx); err != nil {
		s.key = oldKey
		s.salt = oldSalt
		s.vault.TOTPSecret = oldSecret
		s.vault.Username = oldOwner
		return err
	}
	shared.WipeByteArray(oldKey)
	return nil
}

// Export writes a standalone encrypted copy of the current vault to
// path, protected by the given secret with a freshly generated salt. The
// open session is not affected.
func (s *Store) Export(ctx context.Context, path, secret string) error {
	if s.state != StateOpen {
		return ErrNotOpen
	}

	key, salt, err := cryptox.DeriveKey(secret, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnknown, err)
	}

	plaintext, err := s.vault.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnknown, err)
	}

	blob, err := cryptox.Encrypt(plaintext, key)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnknown, err)
	}

	if err := os.WriteFile(path, append(salt, blob...), 0o600); err != nil {
		return classifyWriteErr(err)
	}

	s.log.Info(ctx, "vault exported", "path", path)
	return nil
}

// Import merges another encrypted container into the open vault. The
// import file carries its own salt and secret. Matching record ids keep
// whichever side was updated more recently; categories are unioned. The
// merged result is saved immediately.
func (s *Store) Import(ctx context.Context, path, secret string) error {
	if s.state != StateOpen {
		return ErrNotOpen
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return classifyReadErr(err)
	}
	if len(data) <= common.SaltSize {
		return fmt.Errorf("%w: file %s is too short (%d bytes)", common.ErrDataCorrupted, path, len(data))
	}

	key, _, err := cryptox.DeriveKey(secret, data[:common.SaltSize])
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnknown, err)
	}

	plaintext, err := cryptox.Decrypt(data[common.SaltSize:], key)
	if err != nil {
		return fmt.Errorf("%w: cannot decrypt %s", common.ErrInvalidKey, path)
	}

	imported, err := vault.Unmarshal(plaintext)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrDataCorrupted, err)
	}

	s.vault.Merge(imported)
	if err := s.Save(ctx); err != nil {
		return err
	}

	s.log.Info(ctx, "vault imported", "path", path, "records", len(imported.Passwords))
	return nil
}

// ManualSync replicates on explicit request. With an open session the
// authoritative container is pushed; otherwise the engine's configured
// pull-then-push runs.
func (s *Store) ManualSync(ctx context.Context) error {
	if !s.syncer.Enabled() {
		return fmt.Errorf("%w: cloud sync is disabled", common.ErrSyncUnavailable)
	}
	if s.state == StateOpen && s.dbPath != "" {
		return s.syncer.Push(ctx, s.dbPath)
	}
	return s.syncer.ManualSync(ctx)
}

// SyncStatus returns a short human-readable replication status.
func (s *Store) SyncStatus() string {
	return s.syncer.Status()
}

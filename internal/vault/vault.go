// Package vault defines the in-memory representation of categories and
// credential records, the invariants between them, and the JSON
// serialization that gets encrypted into the on-disk container.
package vault

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/passlock/internal/common"
	"github.com/google/uuid"
)

// DefaultCategories seed a freshly created vault. FallbackCategory is
// always among them.
var DefaultCategories = []string{
	"Websites", "Applications", "Email", "Banking", "Documents", common.FallbackCategory,
}

// Record is a single credential entry. ID is immutable after creation;
// UpdatedAt is refreshed on every mutation. Timestamps are ISO-8601 text.
type Record struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	URL       string `json:"url"`
	Notes     string `json:"notes"`
	Category  string `json:"category"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Vault is the aggregate root for one database.
type Vault struct {
	Categories   []string `json:"categories"`
	Passwords    []Record `json:"passwords"`
	LastModified string   `json:"last_modified"`
	Version      string   `json:"version"`
	TOTPSecret   string   `json:"totp_secret,omitempty"`
	Username     string   `json:"username"`
}

// New returns an empty vault with default categories, the given
// second-factor secret and owner name, and a current timestamp.
func New(totpSecret, owner string) *Vault {
	cats := make([]string, len(DefaultCategories))
	copy(cats, DefaultCategories)
	return &Vault{
		Categories:   cats,
		Passwords:    []Record{},
		LastModified: NowISO(),
		Version:      common.VaultVersion,
		TOTPSecret:   totpSecret,
		Username:     owner,
	}
}

// NowISO returns the current time as ISO-8601 text.
func NowISO() string {
	return time.Now().Format(time.RFC3339Nano)
}

// Touch refreshes the vault-level last-modified timestamp.
func (v *Vault) Touch() {
	v.LastModified = NowISO()
}

// Marshal serializes the vault to its UTF-8 JSON form.
func (v *Vault) Marshal() ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal parses data as a vault serialization. Slices are normalized to
// non-nil so callers can append without nil checks.
func Unmarshal(data []byte) (*Vault, error) {
	var v Vault
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing vault: %w", err)
	}
	if v.Categories == nil {
		v.Categories = []string{}
	}
	if v.Passwords == nil {
		v.Passwords = []Record{}
	}
	return &v, nil
}

// AddRecord assigns a fresh identifier and timestamps to r, appends it and
// returns the stored record.
func (v *Vault) AddRecord(r Record) Record {
	now := NowISO()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now
	v.Passwords = append(v.Passwords, r)
	return r
}

// UpdateRecord replaces the record with the given id, preserving its
// identifier and creation timestamp and refreshing UpdatedAt. It reports
// whether a record with that id existed.
func (v *Vault) UpdateRecord(id string, r Record) bool {
	for i := range v.Passwords {
		if v.Passwords[i].ID == id {
			r.ID = id
			r.CreatedAt = v.Passwords[i].CreatedAt
			r.UpdatedAt = NowISO()
			v.Passwords[i] = r
			return true
		}
	}
	return false
}

// DeleteRecord removes the record with the given id, reporting whether it
// existed.
func (v *Vault) DeleteRecord(id string) bool {
	for i := range v.Passwords {
		if v.Passwords[i].ID == id {
			v.Passwords = append(v.Passwords[:i], v.Passwords[i+1:]...)
			return true
		}
	}
	return false
}

// AllRecords returns every record in storage order.
func (v *Vault) AllRecords() []Record {
	return v.Passwords
}

// Record returns the record with the given id, if present.
func (v *Vault) Record(id string) (Record, bool) {
	for _, r := range v.Passwords {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Search returns records whose title, username, URL or notes contain the
// query, case-insensitively.
func (v *Vault) Search(query string) []Record {
	q := strings.ToLower(query)
	var result []Record
	for _, r := range v.Passwords {
		if strings.Contains(strings.ToLower(r.Title), q) ||
			strings.Contains(strings.ToLower(r.Username), q) ||
			strings.Contains(strings.ToLower(r.URL), q) ||
			strings.Contains(strings.ToLower(r.Notes), q) {
			result = append(result, r)
		}
	}
	return result
}

// RecordsByCategory returns the records belonging to the given category.
func (v *Vault) RecordsByCategory(category string) []Record {
	var result []Record
	for _, r := range v.Passwords {
		if r.Category == category {
			result = append(result, r)
		}
	}
	return result
}

// HasCategory reports whether the category name exists.
func (v *Vault) HasCategory(name string) bool {
	for _, c := range v.Categories {
		if c == name {
			return true
		}
	}
	return false
}

// AddCategory appends a category name. Adding an existing name is a no-op;
// the return value reports whether the vault was mutated.
func (v *Vault) AddCategory(name string) bool {
	if v.HasCategory(name) {
		return false
	}
	v.Categories = append(v.Categories, name)
	return true
}

// DeleteCategory removes a category and reassigns its member records to
// the fallback category. It reports whether the category existed.
func (v *Vault) DeleteCategory(name string) bool {
	idx := -1
	for i, c := range v.Categories {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	v.Categories = append(v.Categories[:idx], v.Categories[idx+1:]...)

	for i := range v.Passwords {
		if v.Passwords[i].Category == name {
			v.Passwords[i].Category = common.FallbackCategory
		}
	}
	return true
}

// RenameCategory renames a category in place (list position preserved) and
// updates every member record. The old name must exist and the new name
// must not; otherwise nothing is mutated.
func (v *Vault) RenameCategory(oldName, newName string) error {
	if !v.HasCategory(oldName) {
		return fmt.Errorf("category %q not found", oldName)
	}
	if v.HasCategory(newName) {
		return fmt.Errorf("category %q already exists", newName)
	}

	for i, c := range v.Categories {
		if c == oldName {
			v.Categories[i] = newName
			break
		}
	}
	for i := range v.Passwords {
		if v.Passwords[i].Category == oldName {
			v.Passwords[i].Category = newName
		}
	}
	return nil
}

// Merge folds another vault into this one: categories are unioned by name,
// records are unioned by identifier, and when an identifier is present in
// both sets the record with the later UpdatedAt wins.
func (v *Vault) Merge(other *Vault) {
	for _, c := range other.Categories {
		if !v.HasCategory(c) {
			v.Categories = append(v.Categories, c)
		}
	}

	byID := make(map[string]int, len(v.Passwords))
	for i, r := range v.Passwords {
		byID[r.ID] = i
	}

	for _, imported := range other.Passwords {
		i, ok := byID[imported.ID]
		if !ok {
			v.Passwords = append(v.Passwords, imported)
			byID[imported.ID] = len(v.Passwords) - 1
			continue
		}
		if parseISO(imported.UpdatedAt).After(parseISO(v.Passwords[i].UpdatedAt)) {
			v.Passwords[i] = imported
		}
	}
}

// parseISO parses an ISO-8601 timestamp, returning the zero time on
// failure so unparseable imports never displace existing records.
func parseISO(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

package vault

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/passlock/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	v := New("JBSWY3DPEHPK3PXP", "alice")

	assert.Equal(t, DefaultCategories, v.Categories)
	assert.Empty(t, v.Passwords)
	assert.Equal(t, common.VaultVersion, v.Version)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", v.TOTPSecret)
	assert.Equal(t, "alice", v.Username)
	assert.NotEmpty(t, v.LastModified)
	assert.True(t, v.HasCategory(common.FallbackCategory))
}

func TestMarshalUnmarshal_FieldNames(t *testing.T) {
	v := New("SECRET", "bob")
	v.AddRecord(Record{Title: "Example", Username: "u", Password: "p", URL: "https://example.com", Category: common.FallbackCategory})

	data, err := v.Marshal()
	require.NoError(t, err)

	for _, field := range []string{
		`"categories"`, `"passwords"`, `"last_modified"`, `"version"`,
		`"totp_secret"`, `"username"`, `"id"`, `"title"`, `"password"`,
		`"url"`, `"notes"`, `"category"`, `"created_at"`, `"updated_at"`,
	} {
		assert.Contains(t, string(data), field)
	}

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, v.Categories, got.Categories)
	assert.Equal(t, v.Passwords, got.Passwords)
	assert.Equal(t, v.TOTPSecret, got.TOTPSecret)
}

func TestUnmarshal_InvalidJSON(t *testing.T) {
	_, err := Unmarshal([]byte("not json"))
	assert.Error(t, err)
}

func TestUnmarshal_NormalizesNilSlices(t *testing.T) {
	got, err := Unmarshal([]byte(`{"version":"1.0"}`))
	require.NoError(t, err)
	assert.NotNil(t, got.Categories)
	assert.NotNil(t, got.Passwords)
}

func TestAddRecord_AssignsIDAndTimestamps(t *testing.T) {
	v := New("", "")
	r := v.AddRecord(Record{Title: "Example"})

	assert.NotEmpty(t, r.ID)
	assert.NotEmpty(t, r.CreatedAt)
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)

	r2 := v.AddRecord(Record{Title: "Another"})
	assert.NotEqual(t, r.ID, r2.ID)
}

func TestUpdateRecord_PreservesIDAndCreatedAt(t *testing.T) {
	v := New("", "")
	r := v.AddRecord(Record{Title: "Example"})

	time.Sleep(time.Millisecond)
	ok := v.UpdateRecord(r.ID, Record{Title: "Changed", ID: "attempted-override"})
	require.True(t, ok)

	got, found := v.Record(r.ID)
	require.True(t, found)
	assert.Equal(t, "Changed", got.Title)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, r.CreatedAt, got.CreatedAt)
	assert.NotEqual(t, r.UpdatedAt, got.UpdatedAt)
}

func TestUpdateRecord_Missing(t *testing.T) {
	v := New("", "")
	assert.False(t, v.UpdateRecord("nope", Record{}))
}

func TestDeleteRecord(t *testing.T) {
	v := New("", "")
	r := v.AddRecord(Record{Title: "Example"})

	assert.True(t, v.DeleteRecord(r.ID))
	assert.False(t, v.DeleteRecord(r.ID))
	_, found := v.Record(r.ID)
	assert.False(t, found)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	v := New("", "")
	v.AddRecord(Record{Title: "GitHub", Username: "dev"})
	v.AddRecord(Record{Title: "Bank", Notes: "main account"})

	assert.Len(t, v.Search("github"), 1)
	assert.Len(t, v.Search("ACCOUNT"), 1)
	assert.Empty(t, v.Search("missing"))
}

func TestCategories_AddDuplicateIsNoop(t *testing.T) {
	v := New("", "")
	assert.True(t, v.AddCategory("Work"))
	assert.False(t, v.AddCategory("Work"))

	count := 0
	for _, c := range v.Categories {
		if c == "Work" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDeleteCategory_ReassignsToFallback(t *testing.T) {
	v := New("", "")
	v.AddCategory("Bank")
	r1 := v.AddRecord(Record{Title: "r1", Category: "Bank"})
	r2 := v.AddRecord(Record{Title: "r2", Category: "Email"})

	require.True(t, v.DeleteCategory("Bank"))

	got1, _ := v.Record(r1.ID)
	got2, _ := v.Record(r2.ID)
	assert.Equal(t, common.FallbackCategory, got1.Category)
	assert.Equal(t, "Email", got2.Category)
	assert.False(t, v.HasCategory("Bank"))
}

func TestDeleteCategory_Missing(t *testing.T) {
	v := New("", "")
	assert.False(t, v.DeleteCategory("nope"))
}

func TestRenameCategory(t *testing.T) {
	v := New("", "")
	v.AddCategory("Work")
	r := v.AddRecord(Record{Title: "r", Category: "Work"})

	require.NoError(t, v.RenameCategory("Work", "Office"))

	got, _ := v.Record(r.ID)
	assert.Equal(t, "Office", got.Category)
	assert.True(t, v.HasCategory("Office"))
	assert.False(t, v.HasCategory("Work"))
}

func TestRenameCategory_Rejections(t *testing.T) {
	v := New("", "")
	v.AddCategory("Work")

	assert.Error(t, v.RenameCategory("nope", "X"), "missing source")
	assert.Error(t, v.RenameCategory("Work", common.FallbackCategory), "duplicate target")
	assert.True(t, v.HasCategory("Work"), "failed rename must not mutate")
}

func TestMerge_ByRecency(t *testing.T) {
	older := "2024-01-01T10:00:00Z"
	newer := "2024-06-01T10:00:00Z"

	v := New("", "")
	v.Passwords = append(v.Passwords, Record{ID: "a", Title: "local", UpdatedAt: newer})
	v.Passwords = append(v.Passwords, Record{ID: "b", Title: "local", UpdatedAt: older})

	imported := New("", "")
	imported.AddCategory("Imported")
	imported.Passwords = append(imported.Passwords, Record{ID: "a", Title: "imported", UpdatedAt: older})
	imported.Passwords = append(imported.Passwords, Record{ID: "b", Title: "imported", UpdatedAt: newer})
	imported.Passwords = append(imported.Passwords, Record{ID: "c", Title: "imported", UpdatedAt: newer})

	v.Merge(imported)

	a, _ := v.Record("a")
	b, _ := v.Record("b")
	_, hasC := v.Record("c")
	assert.Equal(t, "local", a.Title, "earlier import must not displace existing record")
	assert.Equal(t, "imported", b.Title, "later import wins")
	assert.True(t, hasC)
	assert.True(t, v.HasCategory("Imported"))

	count := 0
	for _, c := range v.Categories {
		if c == common.FallbackCategory {
			count++
		}
	}
	assert.Equal(t, 1, count, "category union must not duplicate names")
}

func TestMerge_UnparseableTimestampKeepsExisting(t *testing.T) {
	v := New("", "")
	v.Passwords = append(v.Passwords, Record{ID: "a", Title: "local", UpdatedAt: "2024-01-01T10:00:00Z"})

	imported := New("", "")
	imported.Passwords = append(imported.Passwords, Record{ID: "a", Title: "imported", UpdatedAt: "garbage"})

	v.Merge(imported)

	a, _ := v.Record("a")
	assert.Equal(t, "local", a.Title)
}

package common

const (
	// SaltSize is the length of the random salt stored at the head of every
	// container file.
	SaltSize = 16

	// DefaultDBFileName is used when no database path was ever configured.
	DefaultDBFileName = "passwords.db"

	// FallbackCategory always exists in a vault and receives records whose
	// category is deleted.
	FallbackCategory = "Other"

	// BackupExt is the extension of rotated backup copies.
	BackupExt = ".bak"

	// VaultVersion is the serialization format version tag.
	VaultVersion = "1.0"
)

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/passlock/internal/shared"
	"github.com/dmitrijs2005/passlock/internal/totp"
)

// getSimpleText, getTextDefault and getSecret are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getTextDefault = GetTextDefault
var getSecret = GetSecret
var getMultiline = GetMultiline
var confirm = Confirm

// Create initializes a new database. A fresh authenticator shared secret
// is generated and shown together with its enrollment URI; the user must
// prove enrollment by entering a valid one-time code before the database
// is written.
func (a *App) Create(ctx context.Context) error {
	if a.isOpen() {
		return fmt.Errorf("a database is already open, lock it first")
	}

	path, err := getTextDefault(a.reader, "Database path", a.config.EffectiveDatabasePath(), os.Stdout)
	if err != nil {
		return err
	}

	account, err := getSimpleText(a.reader, "Account name (email)", os.Stdout)
	if err != nil {
		return err
	}

	secret, err := totp.GenerateSharedSecret(account)
	if err != nil {
		return err
	}

	uri, err := totp.ProvisioningURI(secret, account, totp.DefaultIssuer)
	if err != nil {
		return err
	}

	printlnFn("Add this secret to your authenticator app:")
	printlnFn("  secret:", secret)
	printlnFn("  uri:   ", uri)

	code, err := getSimpleText(a.reader, "Enter the 6-digit code from your authenticator", os.Stdout)
	if err != nil {
		return err
	}
	if !totp.Verify(secret, code) {
		return fmt.Errorf("code does not match, database not created")
	}

	if err := a.store.Create(ctx, path, secret, secret, account); err != nil {
		return err
	}

	printlnFn("Database created at", a.store.Path())
	return nil
}

// Open unlocks an existing database. The master secret doubles as the
// authenticator shared secret, so the user must supply both the secret
// and a currently valid one-time code.
func (a *App) Open(ctx context.Context) error {
	if a.isOpen() {
		return fmt.Errorf("a database is already open")
	}

	def := a.config.DatabasePath
	if def == "" {
		def = a.config.EffectiveDatabasePath()
	}
	path, err := getTextDefault(a.reader, "Database path", def, os.Stdout)
	if err != nil {
		return err
	}

	secret, err := getSecret("Enter master secret", os.Stdout)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(secret)

	code, err := getSimpleText(a.reader, "Enter the 6-digit code from your authenticator", os.Stdout)
	if err != nil {
		return err
	}
	if !totp.Verify(string(secret), code) {
		return fmt.Errorf("code does not match")
	}

	if err := a.store.Open(ctx, path, string(secret)); err != nil {
		return err
	}

	printlnFn("Database unlocked:", a.store.Path())
	return nil
}

// Lock closes the open database. It is a no-op when nothing is open.
func (a *App) Lock(ctx context.Context) error {
	if !a.isOpen() {
		return nil
	}
	a.store.Close(ctx)
	printlnFn("Database locked")
	return nil
}

// Enroll rotates the authenticator shared secret for the open database.
// The new secret becomes the master secret, so the container is
// re-encrypted under it.
func (a *App) Enroll(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	account := a.store.Owner()
	secret, err := totp.GenerateSharedSecret(account)
	if err != nil {
		return err
	}

	uri, err := totp.ProvisioningURI(secret, account, totp.DefaultIssuer)
	if err != nil {
		return err
	}

	printlnFn("Add this secret to your authenticator app:")
	printlnFn("  secret:", secret)
	printlnFn("  uri:   ", uri)

	code, err := getSimpleText(a.reader, "Enter the 6-digit code from your authenticator", os.Stdout)
	if err != nil {
		return err
	}
	if !totp.Verify(secret, code) {
		return fmt.Errorf("code does not match, keeping the current secret")
	}

	if err := a.store.UpdateTOTPSecret(ctx, secret, account); err != nil {
		return err
	}

	printlnFn("Secret rotated. Remove the old entry from your authenticator.")
	return nil
}

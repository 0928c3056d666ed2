package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/passlock/internal/shared"
)

// Sync replicates the database to the configured remote on request.
func (a *App) Sync(ctx context.Context) error {
	if err := a.store.ManualSync(ctx); err != nil {
		return err
	}
	printlnFn("Sync complete")
	return nil
}

// Status prints the session and replication state.
func (a *App) Status(ctx context.Context) error {
	printlnFn("database:", a.status())
	if a.isOpen() {
		printlnFn("path:    ", a.store.Path())
	}
	printlnFn("sync:    ", a.store.SyncStatus())
	return nil
}

// Export writes a standalone encrypted copy of the open database to a
// path of the user's choosing, under a secret of their choosing.
func (a *App) Export(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	path, err := getSimpleText(a.reader, "Export to path", os.Stdout)
	if err != nil {
		return err
	}
	secret, err := getSecret("Export secret", os.Stdout)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(secret)

	if err := a.store.Export(ctx, path, string(secret)); err != nil {
		return err
	}

	printlnFn("Exported to", path)
	return nil
}

// Import merges another encrypted database file into the open one.
func (a *App) Import(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	path, err := getSimpleText(a.reader, "Import from path", os.Stdout)
	if err != nil {
		return err
	}
	secret, err := getSecret("Import secret", os.Stdout)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(secret)

	if err := a.store.Import(ctx, path, string(secret)); err != nil {
		return err
	}

	printlnFn("Import complete,", len(a.store.Records()), "records total")
	return nil
}

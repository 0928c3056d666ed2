// Package cli implements the interactive terminal front end: a small REPL
// over the record store, with no-echo secret entry and one-time-code
// verification on unlock.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/passlock/internal/config"
	"github.com/dmitrijs2005/passlock/internal/logging"
	"github.com/dmitrijs2005/passlock/internal/store"
)

type App struct {
	config *config.Config
	log    logging.Logger
	store  *store.Store
	reader *bufio.Reader
}

func NewApp(c *config.Config, log logging.Logger) *App {
	return &App{
		config: c,
		log:    log,
		store:  store.New(c, log),
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) isOpen() bool {
	return a.store.State() == store.StateOpen
}

func (a *App) status() string {
	if a.isOpen() {
		return fmt.Sprintf("unlocked (%d records)", len(a.store.Records()))
	}
	return "locked"
}

func (a *App) Run(ctx context.Context) {
	printlnFn("PassLock CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

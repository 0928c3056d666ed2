package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/passlock/internal/config"
	"github.com/dmitrijs2005/passlock/internal/logging"
	"github.com/dmitrijs2005/passlock/internal/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

// stubInputs replaces the interactive seams for one test. Text answers are
// consumed in order; a prompt asking for a one-time code is answered with a
// freshly computed code for the secret most recently shown to the user.
func stubInputs(t *testing.T, secretHolder *string, answers ...string) {
	t.Helper()

	origSimple, origDefault, origSecret, origMultiline, origConfirm, origPrintln :=
		getSimpleText, getTextDefault, getSecret, getMultiline, confirm, printlnFn
	t.Cleanup(func() {
		getSimpleText, getTextDefault, getSecret, getMultiline, confirm, printlnFn =
			origSimple, origDefault, origSecret, origMultiline, origConfirm, origPrintln
	})

	queue := answers
	pop := func() string {
		if len(queue) == 0 {
			t.Fatal("ran out of scripted answers")
		}
		v := queue[0]
		queue = queue[1:]
		return v
	}

	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		if strings.Contains(prompt, "6-digit") {
			code, err := totp.CurrentCode(*secretHolder)
			require.NoError(t, err)
			return code, nil
		}
		return pop(), nil
	}
	getTextDefault = func(_ *bufio.Reader, _ string, def string, _ io.Writer) (string, error) {
		if v := pop(); v != "" {
			return v, nil
		}
		return def, nil
	}
	getSecret = func(_ string, _ io.Writer) ([]byte, error) {
		return []byte(pop()), nil
	}
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		return pop(), nil
	}
	confirm = func(_ *bufio.Reader, _ string, _ io.Writer) (bool, error) {
		return true, nil
	}

	// Capture the generated shared secret when Create/Enroll print it.
	printlnFn = func(args ...any) (int, error) {
		if len(args) == 2 {
			if label, ok := args[0].(string); ok && label == "  secret:" {
				*secretHolder = args[1].(string)
			}
		}
		return 0, nil
	}
}

func TestApp_CreateAddLockOpen(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "vault.db")
	app := NewApp(cfg, testLogger())
	ctx := context.Background()

	var secret string
	stubInputs(t, &secret,
		dbPath, "alice", // create: path, account
		"Example", "u", "p", "https://example.com", "", "", // add: fields, notes, category default
	)

	require.NoError(t, app.Create(ctx))
	require.True(t, app.isOpen())
	require.NotEmpty(t, secret)

	require.NoError(t, app.Add(ctx))
	require.Len(t, app.store.Records(), 1)
	rec := app.store.Records()[0]
	assert.Equal(t, "Example", rec.Title)
	assert.Equal(t, "Other", rec.Category)

	require.NoError(t, app.Lock(ctx))
	assert.False(t, app.isOpen())

	stubInputs(t, &secret,
		"",     // open: path, defaults to the configured one
		secret, // open: master secret
	)
	require.NoError(t, app.Open(ctx))
	assert.True(t, app.isOpen())
	assert.Len(t, app.store.Records(), 1)

	app.Lock(ctx)
}

func TestApp_OpenRejectsWrongSecret(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "vault.db")
	app := NewApp(cfg, testLogger())
	ctx := context.Background()

	var secret string
	stubInputs(t, &secret, dbPath, "alice")
	require.NoError(t, app.Create(ctx))
	require.NoError(t, app.Lock(ctx))

	// A code matching the supplied secret still cannot decrypt a container
	// created under a different one.
	wrong := "MFRGGZDFMZTWQ2LK"
	stubInputs(t, &wrong, "", wrong)
	err = app.Open(ctx)
	require.Error(t, err)
	assert.False(t, app.isOpen())
}

func TestApp_CommandsRequireOpenDatabase(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	app := NewApp(cfg, testLogger())
	ctx := context.Background()

	assert.Error(t, app.Add(ctx))
	assert.Error(t, app.List(ctx))
	assert.Error(t, app.Export(ctx))
	assert.Error(t, app.Enroll(ctx))
	assert.NoError(t, app.Lock(ctx))
}

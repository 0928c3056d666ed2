package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isOpen() bool
	Create(ctx context.Context) error
	Open(ctx context.Context) error
	Lock(ctx context.Context) error
	List(ctx context.Context) error
	Add(ctx context.Context) error
	Show(ctx context.Context) error
	Search(ctx context.Context) error
	Edit(ctx context.Context) error
	Delete(ctx context.Context) error
	Categories(ctx context.Context) error
	AddCategory(ctx context.Context) error
	DeleteCategory(ctx context.Context) error
	RenameCategory(ctx context.Context) error
	Export(ctx context.Context) error
	Import(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Enroll(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the PassLock CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Locked:
//	  - help           — show available commands
//	  - create         — initialize a new database
//	  - open           — unlock an existing database
//	  - status         — show database and sync state
//	  - exit | quit    — leave the program
//
//	Unlocked:
//	  - list, add, show, search, edit, delete
//	  - categories, addcat, delcat, rencat
//	  - export, import, sync, status, enroll
//	  - lock           — close the database
//	  - exit | quit    — leave the program
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	do := func(err error) {
		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}

	for {
		printlnFn(fmt.Sprintf("passlock> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isOpen() {
				printlnFn("Available commands: (l)ist, add, show, search, edit, delete, categories, addcat, delcat, rencat, export, import, sync, status, enroll, lock, exit")
			} else {
				printlnFn("Available commands: create, open, status, exit")
			}

		case "create":
			do(a.Create(ctx))

		case "open":
			do(a.Open(ctx))

		case "lock", "close":
			do(a.Lock(ctx))

		case "l", "list":
			do(a.List(ctx))

		case "add":
			do(a.Add(ctx))

		case "show":
			do(a.Show(ctx))

		case "search", "find":
			do(a.Search(ctx))

		case "edit":
			do(a.Edit(ctx))

		case "delete", "del":
			do(a.Delete(ctx))

		case "categories", "cats":
			do(a.Categories(ctx))

		case "addcat":
			do(a.AddCategory(ctx))

		case "delcat":
			do(a.DeleteCategory(ctx))

		case "rencat":
			do(a.RenameCategory(ctx))

		case "export":
			do(a.Export(ctx))

		case "import":
			do(a.Import(ctx))

		case "sync":
			do(a.Sync(ctx))

		case "status":
			do(a.Status(ctx))

		case "enroll":
			do(a.Enroll(ctx))

		case "exit", "quit":
			do(a.Lock(ctx))
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

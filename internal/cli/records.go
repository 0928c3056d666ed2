package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/passlock/internal/vault"
)

// Add prompts for the fields of a new credential record and stores it.
func (a *App) Add(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getSecret("Password", os.Stdout)
	if err != nil {
		return err
	}
	url, err := getSimpleText(a.reader, "URL", os.Stdout)
	if err != nil {
		return err
	}
	notes, err := getMultiline(a.reader, "Notes", os.Stdout)
	if err != nil {
		return err
	}
	category, err := getTextDefault(a.reader,
		"Category ("+strings.Join(a.store.Categories(), ", ")+")",
		"Other", os.Stdout)
	if err != nil {
		return err
	}

	rec, err := a.store.AddRecord(ctx, vault.Record{
		Title:    title,
		Username: username,
		Password: string(password),
		URL:      url,
		Notes:    notes,
		Category: category,
	})
	if err != nil {
		return err
	}

	printlnFn("Added record", rec.ID)
	return nil
}

// List prints a one-line summary of every record.
func (a *App) List(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}
	printRecords(a.store.Records())
	return nil
}

// Show prompts for a record id and prints the full record.
func (a *App) Show(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	id, err := getSimpleText(a.reader, "Record id", os.Stdout)
	if err != nil {
		return err
	}

	rec, err := a.store.Record(id)
	if err != nil {
		return err
	}

	printlnFn("id:       ", rec.ID)
	printlnFn("title:    ", rec.Title)
	printlnFn("username: ", rec.Username)
	printlnFn("password: ", rec.Password)
	printlnFn("url:      ", rec.URL)
	printlnFn("notes:    ", rec.Notes)
	printlnFn("category: ", rec.Category)
	printlnFn("created:  ", rec.CreatedAt)
	printlnFn("updated:  ", rec.UpdatedAt)
	return nil
}

// Search prompts for a query and lists matching records.
func (a *App) Search(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	query, err := getSimpleText(a.reader, "Search for", os.Stdout)
	if err != nil {
		return err
	}
	printRecords(a.store.Search(query))
	return nil
}

// Edit prompts for a record id and lets the user change each field, with
// the current value as the default.
func (a *App) Edit(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	id, err := getSimpleText(a.reader, "Record id", os.Stdout)
	if err != nil {
		return err
	}
	rec, err := a.store.Record(id)
	if err != nil {
		return err
	}

	if rec.Title, err = getTextDefault(a.reader, "Title", rec.Title, os.Stdout); err != nil {
		return err
	}
	if rec.Username, err = getTextDefault(a.reader, "Username", rec.Username, os.Stdout); err != nil {
		return err
	}
	if rec.Password, err = getTextDefault(a.reader, "Password (Enter keeps current)", rec.Password, os.Stdout); err != nil {
		return err
	}
	if rec.URL, err = getTextDefault(a.reader, "URL", rec.URL, os.Stdout); err != nil {
		return err
	}
	if rec.Notes, err = getTextDefault(a.reader, "Notes", rec.Notes, os.Stdout); err != nil {
		return err
	}
	if rec.Category, err = getTextDefault(a.reader, "Category", rec.Category, os.Stdout); err != nil {
		return err
	}

	if err := a.store.UpdateRecord(ctx, id, rec); err != nil {
		return err
	}

	printlnFn("Updated record", id)
	return nil
}

// Delete prompts for a record id and removes it after confirmation.
func (a *App) Delete(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	id, err := getSimpleText(a.reader, "Record id", os.Stdout)
	if err != nil {
		return err
	}
	rec, err := a.store.Record(id)
	if err != nil {
		return err
	}

	ok, err := confirm(a.reader, fmt.Sprintf("Delete %q?", rec.Title), os.Stdout)
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("Cancelled")
		return nil
	}

	if err := a.store.DeleteRecord(ctx, id); err != nil {
		return err
	}

	printlnFn("Deleted record", id)
	return nil
}

func printRecords(records []vault.Record) {
	if len(records) == 0 {
		printlnFn("No records")
		return
	}
	for _, r := range records {
		printlnFn(fmt.Sprintf("%s  %-20s %-20s %s", r.ID, r.Title, r.Username, r.Category))
	}
}

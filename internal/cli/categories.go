package cli

import (
	"context"
	"fmt"
	"os"
)

// Categories lists the category names with their record counts.
func (a *App) Categories(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	for _, name := range a.store.Categories() {
		printlnFn(fmt.Sprintf("%-20s %d", name, len(a.store.RecordsByCategory(name))))
	}
	return nil
}

// AddCategory prompts for a name and registers it.
func (a *App) AddCategory(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	name, err := getSimpleText(a.reader, "New category name", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.store.AddCategory(ctx, name); err != nil {
		return err
	}

	printlnFn("Category added:", name)
	return nil
}

// DeleteCategory prompts for a name and removes it after confirmation.
// Records in the deleted category are reassigned, not lost.
func (a *App) DeleteCategory(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	name, err := getSimpleText(a.reader, "Category to delete", os.Stdout)
	if err != nil {
		return err
	}

	n := len(a.store.RecordsByCategory(name))
	ok, err := confirm(a.reader, fmt.Sprintf("Delete %q and move its %d record(s) to the fallback category?", name, n), os.Stdout)
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("Cancelled")
		return nil
	}

	if err := a.store.DeleteCategory(ctx, name); err != nil {
		return err
	}

	printlnFn("Category deleted:", name)
	return nil
}

// RenameCategory prompts for old and new names and renames the category.
func (a *App) RenameCategory(ctx context.Context) error {
	if !a.isOpen() {
		return fmt.Errorf("no database is open")
	}

	oldName, err := getSimpleText(a.reader, "Category to rename", os.Stdout)
	if err != nil {
		return err
	}
	newName, err := getSimpleText(a.reader, "New name", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.store.RenameCategory(ctx, oldName, newName); err != nil {
		return err
	}

	printlnFn("Category renamed:", oldName, "->", newName)
	return nil
}

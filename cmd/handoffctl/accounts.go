package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"handoff/internal/domain"
	"handoff/internal/dto"
	"handoff/internal/store"
	"handoff/pkg/db"
)

// runSetActive flips the active flag of an account straight in the database.
// Disabled accounts fail login and every gated request, including ones
// carrying tokens issued before the change.
func (c *cli) runSetActive(args []string, active bool) error {
	name := "disable"
	if active {
		name = "enable"
	}
	fs := newFlagSet(name)
	dsn := fs.String("database-url", os.Getenv("DATABASE_URL"), "database DSN")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}
	if *dsn == "" {
		return errors.New("-database-url or DATABASE_URL is required")
	}

	st, closeStore, err := c.openStore(*dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close database: %v\n", cerr)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var acc *domain.Account
	err = st.WithTx(ctx, func(tx *store.Store) error {
		found, err := tx.Accounts().FindByEmail(ctx, dto.NormalizeEmail(*email), false)
		if err != nil {
			return err
		}
		if err := tx.Accounts().SetActive(ctx, found.ID, active); err != nil {
			return err
		}
		found.Active = active
		acc = found
		return nil
	})
	if errors.Is(err, store.ErrRecordNotFound) {
		return fmt.Errorf("no account with email %s", dto.NormalizeEmail(*email))
	}
	if err != nil {
		return err
	}
	return printJSON(c.out, map[string]any{"id": acc.ID, "email": acc.Email, "active": acc.Active})
}

func openStore(dsn string) (*store.Store, func() error, error) {
	gdb, err := db.OpenGorm(db.Config{DSN: dsn})
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, err
	}
	return store.New(gdb), sqlDB.Close, nil
}

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"expenses/internal/auth"
	"expenses/internal/config"
	"expenses/internal/db"
	"expenses/internal/models"
	"expenses/internal/store"
	"expenses/internal/validator"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"
)

type createUserFunc func(ctx context.Context, username, passwordHash string) (models.User, error)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, createUser); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func createUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	cfg, err := config.Load()
	if err != nil {
		return models.User{}, err
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions{MaxOpenConns: 1})
	if err != nil {
		return models.User{}, err
	}
	defer database.Close()

	users := store.NewUserStore(database)
	var user models.User
	err = db.NewTxRunner(database).WithTx(ctx, func(tx *sqlx.Tx) error {
		created, err := users.Create(ctx, tx, username, passwordHash)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	return user, err
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, create createUserFunc) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>]")
		fs.PrintDefaults()
		return errors.New("missing required flags: user")
	}
	if err := validator.ValidateUsername(*username); err != nil {
		return err
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if err := validator.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: at least 8 characters required", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := create(ctx, *username, hash)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return fmt.Errorf("user %s already exists", *username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

// readPassword reads without echo on a terminal and falls back to a plain
// line read for pipes.
func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"expenses/internal/config"
	"expenses/internal/db"
	"expenses/internal/models"
	"expenses/internal/services"
	"expenses/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var currencies = []string{"USD", "EUR"}

var words = []string{
	"groceries", "transport", "housing", "utilities", "health", "insurance", "leisure",
	"travel", "books", "music", "garden", "pets", "gifts", "clothing", "coffee",
	"dining", "fitness", "education", "charity", "repairs", "software", "hardware",
	"phone", "internet", "parking", "fuel", "taxes", "savings", "toys", "cinema",
}

// expenseWriter is the subset of the expense service the seeder drives.
type expenseWriter interface {
	CreateCategory(ctx context.Context, name string) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateExpense(ctx context.Context, input models.NewExpense) (models.Expense, error)
}

type resetFunc func(ctx context.Context) error

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions{MaxOpenConns: 2})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	txRunner := db.NewTxRunner(database)
	service := services.NewExpenseService(txRunner, store.NewCategoryStore(database), store.NewExpenseStore())
	reset := func(ctx context.Context) error {
		return txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `DELETE FROM categories`)
			return err
		})
	}

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, service, reset); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			database.Close()
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		database.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, writer expenseWriter, reset resetFunc) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)

	categoryCount := fs.Int("categories", 15, "Number of categories to create")
	expenseCount := fs.Int("expenses", 200, "Number of expenses to create")
	seed := fs.Int64("seed", time.Now().UnixNano(), "Random seed")
	keep := fs.Bool("keep", false, "Keep existing categories and expenses")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *categoryCount < 1 {
		return errors.New("categories must be at least 1")
	}
	if *expenseCount < 0 {
		return errors.New("expenses must not be negative")
	}
	rng := rand.New(rand.NewSource(*seed))

	if !*keep {
		fmt.Fprintln(stdout, "Clearing existing data...")
		if err := reset(ctx); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
	}

	fmt.Fprintln(stdout, "Creating categories...")
	categoryIDs := make([]int64, 0, *categoryCount)
	var existing []models.Category
	for _, name := range categoryNames(rng, *categoryCount) {
		category, err := writer.CreateCategory(ctx, name)
		if errors.Is(err, services.ErrNameConflict) {
			if existing == nil {
				if existing, err = writer.ListCategories(ctx); err != nil {
					return fmt.Errorf("failed to list categories: %w", err)
				}
			}
			category, err = findCategory(existing, name)
		}
		if err != nil {
			return fmt.Errorf("failed to create category %q: %w", name, err)
		}
		categoryIDs = append(categoryIDs, category.ID)
	}

	fmt.Fprintln(stdout, "Creating expenses...")
	for i := 0; i < *expenseCount; i++ {
		name := sentence(rng, 8)
		_, err := writer.CreateExpense(ctx, models.NewExpense{
			CategoryID: categoryIDs[rng.Intn(len(categoryIDs))],
			Amount:     randomAmount(rng),
			Currency:   currencies[rng.Intn(len(currencies))],
			Name:       &name,
		})
		if err != nil {
			return fmt.Errorf("failed to create expense %d: %w", i+1, err)
		}
	}

	fmt.Fprintf(stdout, "Created %d categories and %d expenses\n", len(categoryIDs), *expenseCount)
	return nil
}

func findCategory(categories []models.Category, name string) (models.Category, error) {
	for _, category := range categories {
		if strings.EqualFold(category.Name, name) {
			return category, nil
		}
	}
	return models.Category{}, services.ErrNameConflict
}

// categoryNames returns n distinct capitalized names.
func categoryNames(rng *rand.Rand, n int) []string {
	names := make([]string, 0, n)
	for _, i := range rng.Perm(len(words)) {
		if len(names) == n {
			break
		}
		names = append(names, capitalize(words[i]))
	}
	for round := 2; len(names) < n; round++ {
		for _, word := range words {
			if len(names) == n {
				break
			}
			names = append(names, capitalize(word)+" "+strconv.Itoa(round))
		}
	}
	return names
}

// randomAmount is between 5.00 and 500.00 inclusive.
func randomAmount(rng *rand.Rand) decimal.Decimal {
	cents := 500 + rng.Int63n(49501)
	return decimal.New(cents, -2)
}

func sentence(rng *rand.Rand, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[rng.Intn(len(words))]
	}
	return capitalize(strings.Join(parts, " ")) + "."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

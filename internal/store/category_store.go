package store

import (
	"context"

	"expenses/internal/models"
)

type CategoryStore struct {
	db DB
}

func NewCategoryStore(db DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// Create inserts a category. A name that collides with an existing one,
// ignoring case, fails with a unique violation from categories_name_lower_key.
func (s *CategoryStore) Create(ctx context.Context, tx Getter, name string) (models.Category, error) {
	var category models.Category
	err := tx.GetContext(ctx, &category, `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id, name, created_at
	`, name)
	return category, err
}

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories, `
		SELECT id, name, created_at
		FROM categories
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// Delete removes a category and reports how many rows went away. Expenses
// still referencing the category make the statement fail with a foreign key
// violation.
func (s *CategoryStore) Delete(ctx context.Context, tx Execer, id int64) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"checkout-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetBookByID retrieves a book by internal ID
func (s *Store) GetBookByID(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	err := s.db.GetContext(ctx, &book, "SELECT * FROM books WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("book not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBooksByExternalIDs retrieves books whose gateway product id is in the
// given set. Unknown ids are simply absent from the result, not an error.
func (s *Store) GetBooksByExternalIDs(ctx context.Context, externalIDs []string) ([]models.Book, error) {
	if len(externalIDs) == 0 {
		return []models.Book{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM books WHERE external_id IN (?)", externalIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var books []models.Book
	err = s.db.SelectContext(ctx, &books, query, args...)
	return books, err
}

// SetBookExternalID records the gateway product id assigned to a book
// once the catalog sync has mirrored it.
func (s *Store) SetBookExternalID(ctx context.Context, bookID int64, externalID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE books SET external_id = $1 WHERE id = $2",
		externalID, bookID)
	return err
}

// SetBookActiveByExternalID toggles the local active flag alongside the
// gateway archive/restore operations.
func (s *Store) SetBookActiveByExternalID(ctx context.Context, externalID string, active bool) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE books SET active = $1 WHERE external_id = $2",
		active, externalID)
	return err
}

// GetUserByID retrieves a shopper profile
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAddressByUserID retrieves the user's stored shipping address.
// Returns (nil, nil) when the user has none.
func (s *Store) GetAddressByUserID(ctx context.Context, userID int64) (*models.Address, error) {
	var addr models.Address
	err := s.db.GetContext(ctx, &addr, "SELECT * FROM addresses WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// RecordCheckoutStep records completion of one saga step for an attempt
func (s *Store) RecordCheckoutStep(ctx context.Context, attemptID, step string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO checkout_steps (attempt_id, step) VALUES ($1, $2) ON CONFLICT (attempt_id, step) DO NOTHING",
		attemptID, step)
	return err
}

// GetCheckoutSteps retrieves the recorded steps of an attempt in order
func (s *Store) GetCheckoutSteps(ctx context.Context, attemptID string) ([]models.CheckoutStep, error) {
	var steps []models.CheckoutStep
	err := s.db.SelectContext(ctx, &steps,
		"SELECT * FROM checkout_steps WHERE attempt_id = $1 ORDER BY created_at", attemptID)
	return steps, err
}

package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/brutaldon/internal/models"
	"github.com/desertthunder/brutaldon/internal/shared"
)

// AccountRepository implements [models.Repository] for [models.Account] persistence.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new [AccountRepository] with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, sequence, username, access_token, client_ref, created_at, updated_at`

// Create inserts a new account with generated ID and sequence.
func (r *AccountRepository) Create(account *models.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "accounts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		id, sequence, account.Username(), account.AccessToken(), account.ClientRef(), account.CreatedAt(), account.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	account.SetID(id)
	account.SetSequence(sequence)
	return nil
}

// Get retrieves an account by ID
func (r *AccountRepository) Get(id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

	account, err := scanAccount(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: account %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

// UpdateToken stores a new access token for an existing account.
func (r *AccountRepository) UpdateToken(account *models.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	account.SetUpdatedAt(now)

	result, err := r.db.Exec(`UPDATE accounts SET access_token = ?, updated_at = ? WHERE id = ?`,
		account.AccessToken(), now, account.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: account %s", shared.ErrNotFound, account.ID())
	}

	return nil
}

// FindByUsername looks up the account of username registered through the client with ID clientRef.
func (r *AccountRepository) FindByUsername(username, clientRef string) (models.Lookup[*models.Account], error) {
	accounts, err := r.List(map[string]any{"username": username, "client_ref": clientRef})
	if err != nil {
		return models.Lookup[*models.Account]{}, err
	}
	return models.NewLookup(accounts), nil
}

// List retrieves all accounts matching the given criteria, ordered by sequence.
//
// Supported criteria: "username" (string), "client_ref" (string).
func (r *AccountRepository) List(criteria map[string]any) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE 1 = 1`
	args := []any{}

	if username, ok := criteria["username"].(string); ok && username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}

	if clientRef, ok := criteria["client_ref"].(string); ok && clientRef != "" {
		query += " AND client_ref = ?"
		args = append(args, clientRef)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return accounts, nil
}

func scanAccount(s scanner) (*models.Account, error) {
	var (
		id          string
		sequence    int
		username    string
		accessToken string
		clientRef   string
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := s.Scan(&id, &sequence, &username, &accessToken, &clientRef, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	account := models.NewAccount(sequence, username, accessToken, clientRef)
	account.SetID(id)
	account.SetCreatedAt(createdAt)
	account.SetUpdatedAt(updatedAt)
	return account, nil
}

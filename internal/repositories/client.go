package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/brutaldon/internal/models"
	"github.com/desertthunder/brutaldon/internal/shared"
)

// ClientRepository implements [models.Repository] for [models.Client] persistence.
type ClientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new [ClientRepository] with the given database connection
func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `id, sequence, instance, client_id, client_secret, created_at, updated_at`

// Create inserts a new client registration with generated ID and sequence.
//
// A second registration for the same instance fails with a UNIQUE constraint error (see [shared.IsUniqueViolation]).
func (r *ClientRepository) Create(client *models.Client) error {
	if err := client.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "clients")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `INSERT INTO clients (` + clientColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		id, sequence, client.Instance(), client.ClientID(), client.ClientSecret(), client.CreatedAt(), client.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert client: %w", err)
	}

	client.SetID(id)
	client.SetSequence(sequence)
	return nil
}

// Get retrieves a client registration by ID
func (r *ClientRepository) Get(id string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`

	client, err := scanClient(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: client %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query client: %w", err)
	}
	return client, nil
}

// FindByInstance looks up the registration for a normalized instance URL.
func (r *ClientRepository) FindByInstance(instance string) (models.Lookup[*models.Client], error) {
	clients, err := r.List(map[string]any{"instance": instance})
	if err != nil {
		return models.Lookup[*models.Client]{}, err
	}
	return models.NewLookup(clients), nil
}

// List retrieves all client registrations matching the given criteria, ordered by sequence.
//
// Supported criteria: "instance" (string).
func (r *ClientRepository) List(criteria map[string]any) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE 1 = 1`
	args := []any{}

	if instance, ok := criteria["instance"].(string); ok && instance != "" {
		query += " AND instance = ?"
		args = append(args, instance)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return clients, nil
}

func scanClient(s scanner) (*models.Client, error) {
	var (
		id           string
		sequence     int
		instance     string
		clientID     string
		clientSecret string
		createdAt    time.Time
		updatedAt    time.Time
	)

	if err := s.Scan(&id, &sequence, &instance, &clientID, &clientSecret, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	client := models.NewClient(sequence, instance, clientID, clientSecret)
	client.SetID(id)
	client.SetCreatedAt(createdAt)
	client.SetUpdatedAt(updatedAt)
	return client, nil
}

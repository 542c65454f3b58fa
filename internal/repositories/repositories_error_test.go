package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/brutaldon/internal/models"
	"github.com/desertthunder/brutaldon/internal/shared"
)

func TestClientRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewClientRepository(db)
			if err := repo.Create(models.NewClient(0, "example.social", "id", "secret")); err == nil {
				t.Fatal("expected validation error for relative instance URL")
			}
		})

		t.Run("DuplicateInstance", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewClientRepository(db)
			createClient(t, repo, "https://example.social")

			err := repo.Create(models.NewClient(0, "https://example.social", "id-2", "secret-2"))
			if err == nil {
				t.Fatal("expected error when creating a second registration for the same instance")
			}
			if !shared.IsUniqueViolation(err) {
				t.Errorf("expected UNIQUE violation, got %v", err)
			}
		})
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewClientRepository(db)
		if _, err := repo.FindByInstance("https://example.social"); err == nil {
			t.Error("expected error from closed database")
		}
	})
}

func TestAccountRepositoryErrors(t *testing.T) {
	t.Run("DuplicateUsername", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		client := createClient(t, NewClientRepository(db), "https://example.social")
		repo := NewAccountRepository(db)

		if err := repo.Create(models.NewAccount(0, "alice", "tok", client.ID())); err != nil {
			t.Fatalf("failed to create first account: %v", err)
		}

		err := repo.Create(models.NewAccount(0, "alice", "tok-2", client.ID()))
		if !shared.IsUniqueViolation(err) {
			t.Errorf("expected UNIQUE violation, got %v", err)
		}
	})

	t.Run("UnknownClient", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAccountRepository(db)
		if err := repo.Create(models.NewAccount(0, "alice", "tok", "missing-client")); err == nil {
			t.Error("expected foreign key error for unknown client")
		}
	})

	t.Run("UpdateToken NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		account := models.NewAccount(0, "alice", "tok", "client")
		account.SetID("nonexistent-id")

		err := NewAccountRepository(db).UpdateToken(account)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewAccountRepository(db).Create(models.NewAccount(0, "", "tok", "client")); err == nil {
			t.Error("expected validation error for empty username")
		}
	})
}

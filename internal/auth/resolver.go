package auth

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/brutaldon/internal/models"
	"github.com/desertthunder/brutaldon/internal/services"
	"github.com/desertthunder/brutaldon/internal/shared"
)

// ClientFinder looks up client registrations by instance URL.
type ClientFinder interface {
	FindByInstance(instance string) (models.Lookup[*models.Client], error)
}

// AccountFinder looks up stored credentials by username within one client registration.
type AccountFinder interface {
	FindByUsername(username, clientRef string) (models.Lookup[*models.Account], error)
}

// Resolver produces authenticated API handles for sessions. It never writes.
type Resolver struct {
	clients  ClientFinder
	accounts AccountFinder
	provider services.Provider
	logger   *log.Logger
}

// NewResolver creates a [Resolver].
func NewResolver(clients ClientFinder, accounts AccountFinder, provider services.Provider, logger *log.Logger) *Resolver {
	return &Resolver{
		clients:  clients,
		accounts: accounts,
		provider: provider,
		logger:   shared.WithLogger(logger, "component", "resolver"),
	}
}

// Resolve returns a handle for the session's account, or [shared.ErrNotAuthenticated] when the session is
// anonymous or its selectors do not match exactly one client and one account.
//
// Storage failures are returned as-is.
func (r *Resolver) Resolve(ctx context.Context, state models.SessionState) (services.Mastodon, error) {
	if !state.Authenticated() {
		return nil, shared.ErrNotAuthenticated
	}

	clients, err := r.clients.FindByInstance(state.Instance)
	if err != nil {
		return nil, fmt.Errorf("failed to look up client: %w", err)
	}
	if err := r.check(clients.Outcome, clients.Count, "client", state.Instance); err != nil {
		return nil, err
	}
	client := clients.Record

	accounts, err := r.accounts.FindByUsername(state.Username, client.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if err := r.check(accounts.Outcome, accounts.Count, "account", state.Username); err != nil {
		return nil, err
	}
	account := accounts.Record

	creds := services.AppCredentials{
		Instance:     client.Instance(),
		ClientID:     client.ClientID(),
		ClientSecret: client.ClientSecret(),
	}
	return r.provider.Client(creds, account.AccessToken()), nil
}

// check maps anything but a single match to [shared.ErrNotAuthenticated]. Ambiguous matches are logged.
func (r *Resolver) check(outcome models.Outcome, count int, kind, key string) error {
	switch outcome {
	case models.Found:
		return nil
	case models.Ambiguous:
		r.logger.Error("ambiguous credential lookup", "kind", kind, "key", key, "matches", count, "err", shared.ErrDataIntegrity)
	default:
		r.logger.Debug("no stored credentials", "kind", kind, "key", key)
	}
	return shared.ErrNotAuthenticated
}

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/brutaldon/internal/models"
	"github.com/desertthunder/brutaldon/internal/services"
	"github.com/desertthunder/brutaldon/internal/shared"
	"golang.org/x/sync/singleflight"
)

// ClientStore persists client registrations.
type ClientStore interface {
	ClientFinder
	Create(client *models.Client) error
}

// AccountStore persists user access tokens.
type AccountStore interface {
	AccountFinder
	Create(account *models.Account) error
	UpdateToken(account *models.Account) error
}

// LoginRequest is the submitted login form.
type LoginRequest struct {
	Instance string
	Username string
	Password string
}

// Provisioner runs the login flow.
type Provisioner struct {
	clients  ClientStore
	accounts AccountStore
	provider services.Provider
	logger   *log.Logger

	// registrations coalesces concurrent first logins against the same instance.
	registrations singleflight.Group
}

// NewProvisioner creates a [Provisioner].
func NewProvisioner(clients ClientStore, accounts AccountStore, provider services.Provider, logger *log.Logger) *Provisioner {
	return &Provisioner{
		clients:  clients,
		accounts: accounts,
		provider: provider,
		logger:   shared.WithLogger(logger, "component", "provisioner"),
	}
}

// Login registers with the instance if needed, exchanges the password for an access token and stores it.
//
// The returned state selects the stored account. On failure nothing about the account has been written,
// though a client registration obtained along the way is kept for the next attempt.
func (p *Provisioner) Login(ctx context.Context, req LoginRequest) (models.SessionState, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return models.SessionState{}, fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}

	instance, err := NormalizeInstanceURL(req.Instance)
	if err != nil {
		return models.SessionState{}, err
	}

	client, err := p.registration(ctx, instance)
	if err != nil {
		return models.SessionState{}, err
	}

	creds := services.AppCredentials{
		Instance:     client.Instance(),
		ClientID:     client.ClientID(),
		ClientSecret: client.ClientSecret(),
	}
	token, err := p.provider.LogIn(ctx, creds, username, req.Password)
	if err != nil {
		return models.SessionState{}, fmt.Errorf("login to %s failed: %w", instance, err)
	}

	if err := p.storeToken(username, token.AccessToken, client); err != nil {
		return models.SessionState{}, err
	}

	p.logger.Info("logged in", "instance", instance, "username", username)
	return models.SessionState{Instance: instance, Username: username}, nil
}

// registration returns the client registration for instance, creating it on first use.
func (p *Provisioner) registration(ctx context.Context, instance string) (*models.Client, error) {
	// Joined callers share the registration; it outlives any one caller's cancellation.
	detached := context.WithoutCancel(ctx)
	v, err, joined := p.registrations.Do(instance, func() (any, error) {
		return p.findOrRegister(detached, instance)
	})
	if err != nil {
		return nil, err
	}
	if joined {
		p.logger.Debug("joined in-flight registration", "instance", instance)
	}
	return v.(*models.Client), nil
}

func (p *Provisioner) findOrRegister(ctx context.Context, instance string) (*models.Client, error) {
	client, found, err := p.findClient(instance)
	if err != nil || found {
		return client, err
	}

	app, err := p.provider.CreateApp(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to register with %s: %w", instance, err)
	}

	client = models.NewClient(0, instance, app.ClientID, app.ClientSecret)
	if err := p.clients.Create(client); err != nil {
		if !shared.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to store client: %w", err)
		}

		// Another process registered first; use its row.
		p.logger.Warn("client registration raced, reusing stored row", "instance", instance)
		client, found, err = p.findClient(instance)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: client for %s vanished after conflict", shared.ErrDataIntegrity, instance)
		}
		return client, nil
	}

	p.logger.Info("registered client", "instance", instance)
	return client, nil
}

func (p *Provisioner) findClient(instance string) (*models.Client, bool, error) {
	lookup, err := p.clients.FindByInstance(instance)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up client: %w", err)
	}

	switch lookup.Outcome {
	case models.Found:
		return lookup.Record, true, nil
	case models.Ambiguous:
		return nil, false, fmt.Errorf("%w: %d client registrations for %s", shared.ErrDataIntegrity, lookup.Count, instance)
	default:
		return nil, false, nil
	}
}

// storeToken creates the account or refreshes the token of an existing one.
func (p *Provisioner) storeToken(username, token string, client *models.Client) error {
	account, found, err := p.findAccount(username, client)
	if err != nil {
		return err
	}

	if !found {
		account = models.NewAccount(0, username, token, client.ID())
		err := p.accounts.Create(account)
		if err == nil {
			return nil
		}
		if !shared.IsUniqueViolation(err) {
			return fmt.Errorf("failed to store account: %w", err)
		}

		if account, found, err = p.findAccount(username, client); err != nil {
			return err
		} else if !found {
			return fmt.Errorf("%w: account %s vanished after conflict", shared.ErrDataIntegrity, username)
		}
	}

	account.SetAccessToken(token)
	if err := p.accounts.UpdateToken(account); err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	return nil
}

func (p *Provisioner) findAccount(username string, client *models.Client) (*models.Account, bool, error) {
	lookup, err := p.accounts.FindByUsername(username, client.ID())
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up account: %w", err)
	}

	switch lookup.Outcome {
	case models.Found:
		return lookup.Record, true, nil
	case models.Ambiguous:
		return nil, false, fmt.Errorf("%w: %d accounts for %s at %s", shared.ErrDataIntegrity, lookup.Count, username, client.Instance())
	default:
		return nil, false, nil
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/desertthunder/brutaldon/internal/shared"
	"golang.org/x/oauth2"
)

// oobRedirectURI is the out-of-band redirect used by password-grant apps.
const oobRedirectURI = "urn:ietf:wg:oauth:2.0:oob"

// MastodonService implements [Mastodon] over the instance's REST API.
type MastodonService struct {
	api   *APIService
	pacer *Pacer
}

// Timeline fetches a named timeline.
func (m *MastodonService) Timeline(ctx context.Context, name string) ([]Status, error) {
	path, query, err := timelinePath(name)
	if err != nil {
		return nil, err
	}

	var statuses []Status
	if err := m.get(ctx, path, query, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// timelinePath maps a timeline name to its endpoint.
func timelinePath(name string) (string, url.Values, error) {
	switch name {
	case "home":
		return "/api/v1/timelines/home", nil, nil
	case "local":
		return "/api/v1/timelines/public", url.Values{"local": {"true"}}, nil
	case "public":
		return "/api/v1/timelines/public", nil, nil
	default:
		return "", nil, fmt.Errorf("%w: unknown timeline %q", shared.ErrInvalidArgument, name)
	}
}

// Notifications fetches the user's notifications.
func (m *MastodonService) Notifications(ctx context.Context) ([]Notification, error) {
	var notes []Notification
	if err := m.get(ctx, "/api/v1/notifications", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// Status fetches a single status.
func (m *MastodonService) Status(ctx context.Context, id string) (*Status, error) {
	var status Status
	if err := m.get(ctx, "/api/v1/statuses/"+url.PathEscape(id), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StatusContext fetches the thread around a status.
func (m *MastodonService) StatusContext(ctx context.Context, id string) (*Context, error) {
	var sc Context
	if err := m.get(ctx, "/api/v1/statuses/"+url.PathEscape(id)+"/context", nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// PostStatus creates a new status.
func (m *MastodonService) PostStatus(ctx context.Context, params StatusParams) (*Status, error) {
	form := url.Values{"status": {params.Status}}
	if params.Visibility != "" {
		form.Set("visibility", params.Visibility)
	}
	if params.SpoilerText != "" {
		form.Set("spoiler_text", params.SpoilerText)
	}
	if params.InReplyToID != "" {
		form.Set("in_reply_to_id", params.InReplyToID)
	}

	var status Status
	if err := m.post(ctx, "/api/v1/statuses", form, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Favourite favourites a status.
func (m *MastodonService) Favourite(ctx context.Context, id string) (*Status, error) {
	var status Status
	if err := m.post(ctx, "/api/v1/statuses/"+url.PathEscape(id)+"/favourite", url.Values{}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Unfavourite removes a favourite from a status.
func (m *MastodonService) Unfavourite(ctx context.Context, id string) (*Status, error) {
	var status Status
	if err := m.post(ctx, "/api/v1/statuses/"+url.PathEscape(id)+"/unfavourite", url.Values{}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (m *MastodonService) get(ctx context.Context, path string, query url.Values, result any) error {
	if err := m.pacer.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return m.api.Get(ctx, path, query, result)
}

func (m *MastodonService) post(ctx context.Context, path string, form url.Values, result any) error {
	if err := m.pacer.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return m.api.Post(ctx, path, form, result)
}

// MastodonProvider implements [Provider]. Pacers are shared per access token so that the pace learned on
// one request carries over to the next.
type MastodonProvider struct {
	httpClient *http.Client
	appName    string
	website    string
	userAgent  string
	scopes     []string
	rateLimit  float64
	burst      int

	mu     sync.Mutex
	pacers map[string]*Pacer
}

// ProviderOpts configures a [MastodonProvider].
type ProviderOpts struct {
	HTTPClient *http.Client
	AppName    string
	Website    string
	UserAgent  string
	Scopes     []string
	RateLimit  float64
	Burst      int
}

// NewMastodonProvider creates a [MastodonProvider], defaulting the HTTP client, app name and scopes.
func NewMastodonProvider(opts ProviderOpts) *MastodonProvider {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.AppName == "" {
		opts.AppName = "brutaldon"
	}
	if len(opts.Scopes) == 0 {
		opts.Scopes = []string{"read", "write", "follow"}
	}

	return &MastodonProvider{
		httpClient: opts.HTTPClient,
		appName:    opts.AppName,
		website:    opts.Website,
		userAgent:  opts.UserAgent,
		scopes:     opts.Scopes,
		rateLimit:  opts.RateLimit,
		burst:      opts.Burst,
		pacers:     make(map[string]*Pacer),
	}
}

// CreateApp registers the application with the instance.
func (p *MastodonProvider) CreateApp(ctx context.Context, instance string) (*Application, error) {
	form := url.Values{
		"client_name":   {p.appName},
		"redirect_uris": {oobRedirectURI},
		"scopes":        {strings.Join(p.scopes, " ")},
	}
	if p.website != "" {
		form.Set("website", p.website)
	}

	var app Application
	api := NewAPIService(instance, p.httpClient, p.userAgent)
	if err := api.Post(ctx, "/api/v1/apps", form, &app); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAppRegistration, err)
	}

	if app.ClientID == "" || app.ClientSecret == "" {
		return nil, fmt.Errorf("%w: instance returned no client credentials", shared.ErrAppRegistration)
	}

	return &app, nil
}

// LogIn performs the OAuth password grant against the instance's token endpoint.
func (p *MastodonProvider) LogIn(ctx context.Context, app AppCredentials, username, password string) (*oauth2.Token, error) {
	config := p.oauthConfig(app)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := config.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			if grantRejected(retrieveErr) {
				return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, retrieveErr.ErrorDescription)
			}
			return nil, fmt.Errorf("%w: token endpoint: %v", shared.ErrAPIRequest, retrieveErr)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", shared.ErrAuthFailed)
	}

	return token, nil
}

// grantRejected reports whether the token endpoint refused the credentials themselves, as opposed to
// failing to answer.
func grantRejected(err *oauth2.RetrieveError) bool {
	if err.ErrorCode == "invalid_grant" {
		return true
	}
	if err.Response == nil {
		return false
	}
	return err.Response.StatusCode == http.StatusBadRequest || err.Response.StatusCode == http.StatusUnauthorized
}

func (p *MastodonProvider) oauthConfig(app AppCredentials) *oauth2.Config {
	base := strings.TrimRight(app.Instance, "/")
	return &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURL:  oobRedirectURI,
		Scopes:       p.scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/oauth/authorize",
			TokenURL:  base + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Client returns a [MastodonService] that sends accessToken as a bearer token.
func (p *MastodonProvider) Client(app AppCredentials, accessToken string) Mastodon {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, p.httpClient)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	pacer := p.pacer(app.Instance + "\x00" + accessToken)
	api := NewAPIService(app.Instance, httpClient, p.userAgent)
	api.observe = pacer.Observe

	return &MastodonService{api: api, pacer: pacer}
}

func (p *MastodonProvider) pacer(key string) *Pacer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pacer, ok := p.pacers[key]; ok {
		return pacer
	}
	pacer := NewPacer(p.rateLimit, p.burst)
	p.pacers[key] = pacer
	return pacer
}

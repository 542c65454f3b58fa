// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/brutaldon/internal/services"
	"golang.org/x/oauth2"
)

// MockProvider is a test double for [services.Provider].
//
// Tokens maps "username:password" to the access token LogIn returns; any other pair fails with LogInErr,
// or a generic auth error when LogInErr is nil.
type MockProvider struct {
	Tokens       map[string]string
	CreateAppErr error
	LogInErr     error
	// Mastodon is handed out by every call to [MockProvider.Client].
	Mastodon *MockMastodon

	mu          sync.Mutex
	createCalls atomic.Int32
	logInCalls  atomic.Int32
	clientCalls []services.AppCredentials
	tokens      []string
	apps        int
}

// NewMockProvider creates a [MockProvider] that accepts the given username and password.
func NewMockProvider(username, password, token string) *MockProvider {
	return &MockProvider{
		Tokens:   map[string]string{username + ":" + password: token},
		Mastodon: NewMockMastodon(),
	}
}

func (m *MockProvider) CreateApp(ctx context.Context, instance string) (*services.Application, error) {
	m.createCalls.Add(1)
	if m.CreateAppErr != nil {
		return nil, m.CreateAppErr
	}

	m.mu.Lock()
	m.apps++
	n := m.apps
	m.mu.Unlock()

	return &services.Application{
		ID:           fmt.Sprint(n),
		Name:         "brutaldon",
		ClientID:     fmt.Sprintf("client-%d", n),
		ClientSecret: fmt.Sprintf("secret-%d", n),
	}, nil
}

func (m *MockProvider) LogIn(ctx context.Context, app services.AppCredentials, username, password string) (*oauth2.Token, error) {
	m.logInCalls.Add(1)
	if token, ok := m.Tokens[username+":"+password]; ok {
		return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
	}
	if m.LogInErr != nil {
		return nil, m.LogInErr
	}
	return nil, errors.New("mock: invalid credentials")
}

func (m *MockProvider) Client(app services.AppCredentials, accessToken string) services.Mastodon {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clientCalls = append(m.clientCalls, app)
	m.tokens = append(m.tokens, accessToken)

	if m.Mastodon == nil {
		m.Mastodon = NewMockMastodon()
	}
	return m.Mastodon
}

// CreateAppCalls reports how many app registrations were attempted.
func (m *MockProvider) CreateAppCalls() int { return int(m.createCalls.Load()) }

// LogInCalls reports how many password exchanges were attempted.
func (m *MockProvider) LogInCalls() int { return int(m.logInCalls.Load()) }

// ClientTokens lists the access tokens handed to [MockProvider.Client], in order.
func (m *MockProvider) ClientTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens...)
}

// ClientApps lists the app credentials handed to [MockProvider.Client], in order.
func (m *MockProvider) ClientApps() []services.AppCredentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]services.AppCredentials(nil), m.clientCalls...)
}

// MockMastodon is a test double for [services.Mastodon]. Statuses are served from an in-memory map and
// every call is recorded; Err, when set, fails every call.
type MockMastodon struct {
	Statuses  map[string]*services.Status
	Context   map[string]*services.Context
	Timelines map[string][]services.Status
	Notes     []services.Notification
	Err       error

	mu         sync.Mutex
	calls      []string
	posted     []services.StatusParams
	favourites []string
	unfavs     []string
}

// NewMockMastodon creates an empty [MockMastodon].
func NewMockMastodon() *MockMastodon {
	return &MockMastodon{
		Statuses:  make(map[string]*services.Status),
		Context:   make(map[string]*services.Context),
		Timelines: make(map[string][]services.Status),
	}
}

// AddStatus registers a status that Status and StatusContext will serve.
func (m *MockMastodon) AddStatus(s services.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statuses[s.ID] = &s
}

func (m *MockMastodon) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	return m.Err
}

func (m *MockMastodon) Timeline(ctx context.Context, name string) ([]services.Status, error) {
	if err := m.record("timeline:" + name); err != nil {
		return nil, err
	}
	return m.Timelines[name], nil
}

func (m *MockMastodon) Notifications(ctx context.Context) ([]services.Notification, error) {
	if err := m.record("notifications"); err != nil {
		return nil, err
	}
	return m.Notes, nil
}

func (m *MockMastodon) Status(ctx context.Context, id string) (*services.Status, error) {
	if err := m.record("status:" + id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Statuses[id]
	if !ok {
		return nil, &services.APIError{StatusCode: http.StatusNotFound, Message: "Record not found"}
	}
	clone := *s
	return &clone, nil
}

func (m *MockMastodon) StatusContext(ctx context.Context, id string) (*services.Context, error) {
	if err := m.record("context:" + id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sc, ok := m.Context[id]; ok {
		return sc, nil
	}
	return &services.Context{}, nil
}

func (m *MockMastodon) PostStatus(ctx context.Context, params services.StatusParams) (*services.Status, error) {
	if err := m.record("post"); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, params)
	s := &services.Status{
		ID:          fmt.Sprintf("posted-%d", len(m.posted)),
		Content:     params.Status,
		Visibility:  params.Visibility,
		SpoilerText: params.SpoilerText,
		InReplyToID: params.InReplyToID,
	}
	m.Statuses[s.ID] = s
	return s, nil
}

func (m *MockMastodon) Favourite(ctx context.Context, id string) (*services.Status, error) {
	return m.setFavourite("favourite", id, true)
}

func (m *MockMastodon) Unfavourite(ctx context.Context, id string) (*services.Status, error) {
	return m.setFavourite("unfavourite", id, false)
}

func (m *MockMastodon) setFavourite(call, id string, on bool) (*services.Status, error) {
	if err := m.record(call + ":" + id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		m.favourites = append(m.favourites, id)
	} else {
		m.unfavs = append(m.unfavs, id)
	}

	s, ok := m.Statuses[id]
	if !ok {
		return nil, &services.APIError{StatusCode: http.StatusNotFound, Message: "Record not found"}
	}
	s.Favourited = on
	clone := *s
	return &clone, nil
}

// Calls lists every recorded call, e.g. "timeline:home" or "favourite:42".
func (m *MockMastodon) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Posted lists the parameters of every PostStatus call.
func (m *MockMastodon) Posted() []services.StatusParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]services.StatusParams(nil), m.posted...)
}

// Favourites lists the ids passed to Favourite.
func (m *MockMastodon) Favourites() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.favourites...)
}

// Unfavourites lists the ids passed to Unfavourite.
func (m *MockMastodon) Unfavourites() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.unfavs...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// Package web implements the server-rendered Mastodon front-end.
//
// # Pages
//
//	GET       /              home timeline
//	GET       /local         local timeline
//	GET       /fed           federated timeline
//	GET, POST /login         login form / provisioning flow
//	GET       /logout        full session reset
//	GET       /error         "not logged in" page
//	GET       /note          notifications
//	GET       /thread/{id}   status with ancestors and descendants
//	GET, POST /settings      session display preferences
//	GET, POST /toot          new status
//	GET, POST /reply/{id}    reply prefilled with mentions
//	GET, POST /fav/{id}      favourite confirmation / toggle
//
// Every page except login, logout and error resolves the session's stored credentials first and redirects
// to /login when there are none. A 401 from the instance (revoked token) is handled the same way.
//
// # State
//
// [models.SessionState] lives in a signed cookie managed by [Sessions] (gorilla/sessions). Display
// preferences are session-scoped only. The cookie names an instance and a username and nothing else, so
// its signature is the whole of the authentication: whoever holds session.secret can act as any stored
// account.
//
// # Templates
//
// Pages are html/template files embedded from templates/, rendered inside base.html with the sprig
// function map by [Renderer].
//
// Status bodies are inserted unescaped through the "content" function. Mastodon sanitizes them before
// serving, so pages trust whichever instance the user logged in to; spoiler text, names and everything
// else go through html/template escaping.
package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/brutaldon/internal/auth"
	"github.com/desertthunder/brutaldon/internal/models"
	"github.com/desertthunder/brutaldon/internal/server"
	"github.com/desertthunder/brutaldon/internal/services"
	"github.com/desertthunder/brutaldon/internal/shared"
)

// Resolver turns a session into an authenticated API handle (see [auth.Resolver]).
type Resolver interface {
	Resolve(ctx context.Context, state models.SessionState) (services.Mastodon, error)
}

// Provisioner runs the login flow (see [auth.Provisioner]).
type Provisioner interface {
	Login(ctx context.Context, req auth.LoginRequest) (models.SessionState, error)
}

// App holds the dependencies of every page handler.
type App struct {
	resolver    Resolver
	provisioner Provisioner
	sessions    *Sessions
	renderer    *Renderer
	forms       *forms
	logger      *log.Logger
}

// AppOpts configures an [App].
type AppOpts struct {
	Resolver    Resolver
	Provisioner Provisioner
	Sessions    *Sessions
	Logger      *log.Logger
}

// NewApp creates an [App], parsing the embedded templates.
func NewApp(opts AppOpts) (*App, error) {
	if opts.Resolver == nil || opts.Provisioner == nil || opts.Sessions == nil {
		return nil, fmt.Errorf("%w: resolver, provisioner and sessions are required", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	return &App{
		resolver:    opts.Resolver,
		provisioner: opts.Provisioner,
		sessions:    opts.Sessions,
		renderer:    renderer,
		forms:       newForms(),
		logger:      shared.WithLogger(opts.Logger, "component", "web"),
	}, nil
}

// Register adds every page to router. Middleware must be added to router beforehand.
func (a *App) Register(router server.Router) {
	router.Handle(http.MethodGet, "/{$}", a.timeline("home", "Home"))
	router.Handle(http.MethodGet, "/local", a.timeline("local", "Local"))
	router.Handle(http.MethodGet, "/fed", a.timeline("public", "Federated"))

	router.Handle(http.MethodGet, "/login", http.HandlerFunc(a.loginForm))
	router.Handle(http.MethodPost, "/login", http.HandlerFunc(a.login))
	router.Handle(http.MethodGet, "/logout", http.HandlerFunc(a.logout))
	router.Handle(http.MethodGet, "/error", http.HandlerFunc(a.notLoggedIn))

	router.Handle(http.MethodGet, "/note", http.HandlerFunc(a.notifications))
	router.Handle(http.MethodGet, "/thread/{id}", http.HandlerFunc(a.thread))

	router.Handle(http.MethodGet, "/settings", http.HandlerFunc(a.settingsForm))
	router.Handle(http.MethodPost, "/settings", http.HandlerFunc(a.settings))

	router.Handle(http.MethodGet, "/toot", http.HandlerFunc(a.tootForm))
	router.Handle(http.MethodPost, "/toot", http.HandlerFunc(a.toot))
	router.Handle(http.MethodGet, "/reply/{id}", http.HandlerFunc(a.replyForm))
	router.Handle(http.MethodPost, "/reply/{id}", http.HandlerFunc(a.reply))
	router.Handle(http.MethodGet, "/fav/{id}", http.HandlerFunc(a.favForm))
	router.Handle(http.MethodPost, "/fav/{id}", http.HandlerFunc(a.fav))
}

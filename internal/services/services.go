// package services defines the Mastodon API collaborator used by the web front-end
package services

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Mastodon is an authenticated handle on one user's account at one instance.
type Mastodon interface {
	// Timeline fetches a named timeline: "home", "local" or "public".
	Timeline(ctx context.Context, name string) ([]Status, error)

	// Notifications fetches the user's most recent notifications.
	Notifications(ctx context.Context) ([]Notification, error)

	// Status fetches a single status by ID.
	Status(ctx context.Context, id string) (*Status, error)

	// StatusContext fetches the ancestors and descendants of a status.
	StatusContext(ctx context.Context, id string) (*Context, error)

	// PostStatus creates a status, threaded under params.InReplyToID when set.
	PostStatus(ctx context.Context, params StatusParams) (*Status, error)

	// Favourite marks a status as favourited.
	Favourite(ctx context.Context, id string) (*Status, error)

	// Unfavourite removes a favourite.
	Unfavourite(ctx context.Context, id string) (*Status, error)
}

// Provider performs the unauthenticated half of the API (app registration and login)
// and hands out [Mastodon] handles for stored credentials.
type Provider interface {
	// CreateApp registers this front-end with an instance and returns the issued client credentials.
	CreateApp(ctx context.Context, instance string) (*Application, error)

	// LogIn exchanges a username and password for an access token (OAuth password grant).
	LogIn(ctx context.Context, app AppCredentials, username, password string) (*oauth2.Token, error)

	// Client returns a paced handle that authenticates with accessToken.
	Client(app AppCredentials, accessToken string) Mastodon
}

// AppCredentials identifies this front-end to one instance.
type AppCredentials struct {
	Instance     string
	ClientID     string
	ClientSecret string
}

// StatusParams are the inputs to [Mastodon.PostStatus].
type StatusParams struct {
	Status      string
	Visibility  string
	SpoilerText string
	InReplyToID string
}

// Application is the response to an app registration.
type Application struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Website      string `json:"website"`
	RedirectURI  string `json:"redirect_uri"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Account is a Mastodon user as embedded in statuses and notifications.
type Account struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Acct        string `json:"acct"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
	Avatar      string `json:"avatar"`
}

// Mention is a user mentioned in a status.
type Mention struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
	URL      string `json:"url"`
}

// Attachment is a media file attached to a status.
type Attachment struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	PreviewURL  string `json:"preview_url"`
	Description string `json:"description"`
}

// Status is a single post (toot).
type Status struct {
	ID               string       `json:"id"`
	URI              string       `json:"uri"`
	URL              string       `json:"url"`
	Account          Account      `json:"account"`
	InReplyToID      string       `json:"in_reply_to_id"`
	Reblog           *Status      `json:"reblog"`
	Content          string       `json:"content"`
	CreatedAt        time.Time    `json:"created_at"`
	SpoilerText      string       `json:"spoiler_text"`
	Visibility       string       `json:"visibility"`
	Sensitive        bool         `json:"sensitive"`
	Favourited       bool         `json:"favourited"`
	Reblogged        bool         `json:"reblogged"`
	FavouritesCount  int          `json:"favourites_count"`
	ReblogsCount     int          `json:"reblogs_count"`
	RepliesCount     int          `json:"replies_count"`
	Mentions         []Mention    `json:"mentions"`
	MediaAttachments []Attachment `json:"media_attachments"`
}

// Notification is an entry of the notifications list.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Account   Account   `json:"account"`
	Status    *Status   `json:"status"`
}

// Context holds the thread around a status.
type Context struct {
	Ancestors   []Status `json:"ancestors"`
	Descendants []Status `json:"descendants"`
}

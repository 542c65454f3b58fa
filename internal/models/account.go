package models

import (
	"fmt"
	"time"
)

// Account holds the access token a user obtained through a [Client].
//
// (ClientRef, Username) is unique.
type Account struct {
	base
	username    string
	accessToken string
	clientRef   string
}

// NewAccount creates an unsaved [Account] owned by the client with ID clientRef.
func NewAccount(sequence int, username, accessToken, clientRef string) *Account {
	return &Account{
		base:        newBase(sequence),
		username:    username,
		accessToken: accessToken,
		clientRef:   clientRef,
	}
}

func (a *Account) Username() string    { return a.username }
func (a *Account) AccessToken() string { return a.accessToken }
func (a *Account) ClientRef() string   { return a.clientRef }

// SetAccessToken replaces the stored token after a fresh password exchange.
func (a *Account) SetAccessToken(token string) {
	a.accessToken = token
	a.updatedAt = time.Now().UTC()
}

func (a *Account) Validate() error {
	if a.username == "" {
		return fmt.Errorf("username is required")
	}
	if a.accessToken == "" {
		return fmt.Errorf("access_token is required")
	}
	if a.clientRef == "" {
		return fmt.Errorf("client_ref is required")
	}
	return nil
}

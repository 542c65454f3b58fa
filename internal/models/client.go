package models

import (
	"fmt"
	"net/url"
)

// Client is the OAuth application registration issued to this front-end by one Mastodon instance.
//
// The instance URL is the natural key: at most one Client exists per normalized instance.
type Client struct {
	base
	instance     string
	clientID     string
	clientSecret string
}

// NewClient creates an unsaved [Client].
func NewClient(sequence int, instance, clientID, clientSecret string) *Client {
	return &Client{
		base:         newBase(sequence),
		instance:     instance,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

func (c *Client) Instance() string     { return c.instance }
func (c *Client) ClientID() string     { return c.clientID }
func (c *Client) ClientSecret() string { return c.clientSecret }

// Validate requires an absolute instance URL and both app credentials.
func (c *Client) Validate() error {
	if c.instance == "" {
		return fmt.Errorf("instance is required")
	}
	u, err := url.Parse(c.instance)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("instance must be an absolute URL: %q", c.instance)
	}
	if c.clientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if c.clientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	return nil
}

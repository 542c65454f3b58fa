// Package auth turns browser sessions into authenticated Mastodon handles.
//
// [Resolver] maps a [models.SessionState] to the stored client registration and access token for that
// user and returns a paced [services.Mastodon] handle. [Provisioner] runs on login: it registers this
// front-end with unseen instances, exchanges the password for a token, and persists both.
//
// Lookups by natural key are tagged (see [models.Lookup]). Resolution treats NotFound and Ambiguous alike
// as [shared.ErrNotAuthenticated]; provisioning refuses to guess on Ambiguous and fails with
// [shared.ErrDataIntegrity].
package auth

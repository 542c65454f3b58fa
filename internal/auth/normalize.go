package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/brutaldon/internal/shared"
)

// NormalizeInstanceURL lower-cases an instance address and turns a bare host into an https URL.
//
// "example.social" becomes "https://example.social". Input that already carries a scheme is kept as
// given apart from case. The result is not checked for reachability.
func NormalizeInstanceURL(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("%w: empty", shared.ErrInvalidInstance)
	}

	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInstance, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", shared.ErrInvalidInstance, raw)
	}

	return s, nil
}

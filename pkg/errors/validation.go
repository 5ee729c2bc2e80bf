package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateBaseURL validates an upstream base URL before any request is made.
// Only absolute HTTPS URLs are accepted; the release index and checksum
// files carry no signatures, so transport security is the only integrity
// guarantee for the digests themselves. Plain HTTP is allowed for loopback
// hosts so tests can point at a local server.
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidBaseURL, "base URL cannot be empty")
	}

	for _, r := range raw {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidBaseURL, "base URL contains whitespace or control characters")
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidBaseURL, err, "base URL is not a valid URL")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidBaseURL, "base URL has no host: %q", raw)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if isLoopback(u.Hostname()) {
			return nil
		}
		return New(ErrCodeInvalidBaseURL, "plain http is only allowed for loopback hosts, got %q", u.Hostname())
	default:
		return New(ErrCodeInvalidBaseURL, "unsupported scheme %q (want https)", u.Scheme)
	}
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "::1" || strings.HasPrefix(host, "127.")
}

package theme

import "fmt"

// Theme is the colour scheme preference of the client.
type Theme string

const (
	Light  Theme = "light"
	Dark   Theme = "dark"
	System Theme = "system"
)

const (
	// Default applies when no preference has been stored.
	Default = System
	// CookieName is the cookie holding the preference. Cookie names are
	// RFC 6265 tokens, so the namespace separator is a dot.
	CookieName = "ai-samples.theme"
	// CookieMaxAge is the preference lifetime in seconds (30 days).
	CookieMaxAge = 2592000
	// CookiePath scopes the cookie to the whole site.
	CookiePath = "/"
)

// Parse validates a stored or submitted theme value.
func Parse(raw string) (Theme, error) {
	switch t := Theme(raw); t {
	case Light, Dark, System:
		return t, nil
	default:
		return "", fmt.Errorf("unknown theme %q", raw)
	}
}

// FromCookie returns the theme stored in a cookie value, falling back to Default.
func FromCookie(value string) Theme {
	if t, err := Parse(value); err == nil {
		return t
	}
	return Default
}

func (t Theme) String() string {
	return string(t)
}

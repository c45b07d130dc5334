// Package identity derives the signed-in user's profile from bearer token claims.
package identity

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf16"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultName       = "User"
	defaultGivenName  = "User"
	defaultFamilyName = ""
)

// ErrNoToken is returned when there is no token to decode.
var ErrNoToken = errors.New("cannot get token")

// Profile is the user identity shown by the client.
type Profile struct {
	Name       string  `json:"name"`
	GivenName  string  `json:"givenName"`
	FamilyName string  `json:"familyName"`
	Email      *string `json:"email"`
	Sub        *string `json:"sub"`
}

// ProfileFromToken decodes the claims of a bearer token without verifying its
// signature. The token was issued to this service by the identity provider.
func ProfileFromToken(raw string) (Profile, error) {
	if raw == "" {
		return Profile{}, ErrNoToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Profile{}, fmt.Errorf("decode token claims: %w", err)
	}

	return Profile{
		Name:       stringClaim(claims, "name", defaultName),
		GivenName:  stringClaim(claims, "given_name", defaultGivenName),
		FamilyName: stringClaim(claims, "family_name", defaultFamilyName),
		Email:      optionalClaim(claims, "email"),
		Sub:        optionalClaim(claims, "sub"),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key, fallback string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return fallback
}

func optionalClaim(claims jwt.MapClaims, key string) *string {
	if v, ok := claims[key].(string); ok {
		return &v
	}
	return nil
}

// Initials returns two letters for the avatar: the first letters of the given
// and family names, or the first two letters of the given name.
func (p Profile) Initials() string {
	given := []rune(p.GivenName)
	if len(given) == 0 {
		return ""
	}
	family := []rune(p.FamilyName)
	if len(family) > 0 {
		return string([]rune{given[0], family[0]})
	}
	if len(given) == 1 {
		return string(given[0])
	}
	return string(given[:2])
}

// AvatarColor returns the avatar colour for the profile name.
func (p Profile) AvatarColor() string {
	return AvatarColor(p.Name)
}

// colorPool is indexed by the sum of the name's character codes.
var colorPool = []string{
	"#78a9ff", "#4589ff", "#0f62fe", // blue
	"#42be65", "#24a148", "#198038", // green
	"#08bdba", "#009d9a", "#007d79", // teal
	"#be95ff", "#a56eff", "#8a3ffc", // purple
	"#ff7eb6", "#ee5396", "#d02670", // magenta
	"#ff8389", "#fa4d56", "#da1e28", // red
	"#ff832b", "#eb6200", "#ba4e00", // orange
	"#d2a106", "#b28600", "#8e6a00", // yellow
}

// AvatarColor maps a user name onto the colour pool. Characters outside the
// basic multilingual plane count with their leading UTF-16 unit, so the same
// name always maps to the same colour as in the browser client.
func AvatarColor(name string) string {
	if name == "" {
		return colorPool[0]
	}
	sum := 0
	for _, r := range name {
		if hi, _ := utf16.EncodeRune(r); hi != unicode.ReplacementChar {
			sum += int(hi)
			continue
		}
		sum += int(r)
	}
	return colorPool[sum%len(colorPool)]
}

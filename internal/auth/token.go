package auth

import (
	"encoding/base64"
	"net/mail"
	"strings"
)

// bearerPrefix is accepted but not required on the Authorization header.
const bearerPrefix = "Bearer "

// EncodeToken returns the login token for email.
//
// The token is the base64 encoding of the email and can be forged by anyone
// who knows an address. It identifies a caller; it does not authenticate one.
func EncodeToken(email string) string {
	return base64.StdEncoding.EncodeToString([]byte(email))
}

// DecodeToken reverses EncodeToken. ok is false when the token is not valid
// base64 or does not decode to an email address.
func DecodeToken(token string) (email string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", false
	}
	email = string(raw)
	if !IsEmail(email) {
		return "", false
	}
	return email, true
}

// IsEmail reports whether s is a bare email address such as a@b.co.
func IsEmail(s string) bool {
	if s == "" || len(s) > 254 || strings.TrimSpace(s) != s {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	local, domain, found := strings.Cut(s, "@")
	return found && local != "" && strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// IdentityFromHeader parses an Authorization header value. The token is kept
// even when it does not decode, so it can still be looked up in the store.
func IdentityFromHeader(header string) Identity {
	token := strings.TrimSpace(header)
	token = strings.TrimSpace(strings.TrimPrefix(token, bearerPrefix))
	if token == "" || token == strings.TrimSpace(bearerPrefix) {
		return Identity{}
	}

	id := Identity{Token: token}
	if email, ok := DecodeToken(token); ok {
		id.Email = email
	}
	return id
}

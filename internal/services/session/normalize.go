package session

import "strings"

// DefaultDomain is appended to bare usernames
const DefaultDomain = "quijoterun.com"

// Normalizer turns what a user types into the identifier field into the
// email address the backend knows them by.
//
// The identifier is trimmed and lowercased. Anything containing "@" is used
// as given; a bare username gets "@" + Domain appended. Passwords are never
// touched.
type Normalizer struct {
	Domain string
}

// Email returns the canonical email for identifier
func (n Normalizer) Email(identifier string) string {
	id := strings.ToLower(strings.TrimSpace(identifier))
	if id == "" || strings.Contains(id, "@") || n.Domain == "" {
		return id
	}
	return id + "@" + strings.ToLower(n.Domain)
}

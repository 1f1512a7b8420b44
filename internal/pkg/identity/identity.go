// Package identity derives the canonical storage key for an OTP destination.
//
// Phone and email identities share one table, so the two namespaces must not
// collide: phones normalize to a bare digits-and-plus string, emails carry the
// emailPrefix tag. Nothing outside this package should ever inspect or build
// an identity — the rest of the system treats them as opaque keys.
package identity

import "strings"

const emailPrefix = "email:"

// Phone strips every character that is not a decimal digit or '+'.
// "  +1 (555) 010-0" becomes "+15550100".
func Phone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Email trims whitespace, lower-cases, and tags the address so it cannot
// collide with any phone-derived identity.
func Email(raw string) string {
	return emailPrefix + strings.ToLower(strings.TrimSpace(raw))
}

package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxIdentityLength matches the varchar(128) identity columns.
const MaxIdentityLength = 128

// identityRe: account-style identifiers (hex addresses, uuids, handles); no whitespace.
var identityRe = regexp.MustCompile(`^[A-Za-z0-9:_.@\-]+$`)

// IsValidIdentity reports whether s can be stored as a principal identity.
func IsValidIdentity(s string) bool {
	if s == "" || len(s) > MaxIdentityLength {
		return false
	}
	return identityRe.MatchString(s)
}

// IsValidAddress requires at least one printable, non-space character.
func IsValidAddress(address string) bool {
	if strings.TrimSpace(address) == "" {
		return false
	}
	for _, r := range address {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

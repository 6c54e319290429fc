package reconcile

import (
	"strings"

	"golang.org/x/net/idna"
)

// NormalizeDomain is a KeyFunc that folds case, surrounding whitespace, a trailing
// root dot and IDNA variants together. Domains IDNA cannot map are only lower-cased.
func NormalizeDomain(domain string) string {
	s := strings.TrimSpace(domain)
	s = strings.TrimSuffix(s, ".")
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	ascii, err := idna.Lookup.ToASCII(s)
	if err != nil {
		return s
	}
	return ascii
}

package utils

import "strings"

// ValidEmail reports whether email has a local part and a domain.
func ValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1
}

// InstitutionalEmail reports whether email belongs to the given
// institutional domain (case-insensitive). An empty domain disables the
// restriction so local setups can register any address.
func InstitutionalEmail(email, domain string) bool {
	if !ValidEmail(email) {
		return false
	}
	if domain == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(domain))
}

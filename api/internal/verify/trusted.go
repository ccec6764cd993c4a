package verify

import (
	"net/url"
	"strings"
)

// HostTrusted reports whether rawURL's host is on the allow-list of
// reputable domains (subdomains included). The result only biases the
// engine's instructions; it never overrides the verdict.
func HostTrusted(rawURL string, trustedDomains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	for _, d := range trustedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

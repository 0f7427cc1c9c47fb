package browser

import (
	"net/url"
	"strings"
)

// DefaultAdDomains are blocked when ad blocking is on.
var DefaultAdDomains = []string{"doubleclick.net", "googlesyndication.com", "adservice.google.com"}

// Blocker rejects requests to ad domains.
type Blocker struct {
	domains []string
}

// NewBlocker creates a Blocker for domains and their subdomains.
func NewBlocker(domains []string) *Blocker {
	b := &Blocker{}
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			b.domains = append(b.domains, d)
		}
	}
	return b
}

// Blocked reports whether rawURL points at a blocked domain.
func (b *Blocker) Blocked(rawURL string) bool {
	if b == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range b.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

package errcount

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// DomainOf returns the ASCII hostname of link, without port. A link that
// cannot be parsed, or has no host, is its own key.
func DomainOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return link
	}

	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return host
}

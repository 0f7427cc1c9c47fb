package browser

import (
	"net"
	"net/url"
	"strings"
)

// DefaultSearchEngine is used when no search template is configured.
const DefaultSearchEngine = "https://www.google.com/search?q={}"

// NormalizeURL turns address bar input into a URL. Input that already has
// a scheme is kept, anything that looks like a host gets "http://", and the
// rest becomes a search using the template, where "{}" marks the query.
func NormalizeURL(input, searchTemplate string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	lower := strings.ToLower(input)
	for _, scheme := range []string{"http://", "https://", "file://", "about:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return input
		}
	}

	if looksLikeHost(input) {
		return "http://" + input
	}

	if searchTemplate == "" {
		searchTemplate = DefaultSearchEngine
	}
	q := url.QueryEscape(input)
	if strings.Contains(searchTemplate, "{}") {
		return strings.ReplaceAll(searchTemplate, "{}", q)
	}
	return searchTemplate + q
}

func looksLikeHost(input string) bool {
	if strings.ContainsAny(input, " \t") {
		return false
	}
	host := input
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "localhost" || net.ParseIP(host) != nil {
		return true
	}
	dot := strings.LastIndex(host, ".")
	return dot > 0 && dot < len(host)-1
}

// IsWeb reports whether u is an http or https URL.
func IsWeb(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

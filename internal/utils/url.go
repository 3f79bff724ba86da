package utils

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

var urlRegex = regexp.MustCompile(`https?://[^\s]+`)

// ExtractURLs returns every URL-like substring in the content.
func ExtractURLs(content string) []string {
	return urlRegex.FindAllString(content, -1)
}

// NormalizeURL parses a raw URL and returns it with a lower-cased,
// punycoded host, plus the host itself for allow-list matching.
func NormalizeURL(raw string) (string, string, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	host := NormalizeDomain(parsed.Hostname())
	parsed.Host = host
	return parsed.String(), host, nil
}

// NormalizeDomain lower-cases a domain and converts it to its ASCII
// (punycode) form so lookalike unicode hosts compare equal.
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if ascii, err := idna.ToASCII(domain); err == nil {
		return ascii
	}
	return domain
}

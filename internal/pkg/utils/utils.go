package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrInvalidURL        = errors.New("invalid URL")
	ErrUnsupportedScheme = errors.New("only http and https URLs can be audited")
)

// Extracts the host of a URL without port and without a leading "www.".
func SiteHost(inputURL string) (string, error) {
	if !strings.HasPrefix(inputURL, "http://") && !strings.HasPrefix(inputURL, "https://") {
		inputURL = "https://" + inputURL
	}
	parsedURL, err := url.Parse(inputURL)
	if err != nil || parsedURL.Hostname() == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, inputURL)
	}
	return strings.TrimPrefix(strings.ToLower(parsedURL.Hostname()), "www."), nil
}

// Builds the canonical base URL of a site: scheme added when missing,
// host lowercased and converted to ASCII, no trailing slash.
func NormalizeBaseURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsedURL.Scheme)
	}
	if parsedURL.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, rawURL)
	}

	host, err := idna.Lookup.ToASCII(strings.ToLower(parsedURL.Hostname()))
	if err != nil {
		return "", fmt.Errorf("%w: host %q: %v", ErrInvalidURL, parsedURL.Hostname(), err)
	}
	if port := parsedURL.Port(); port != "" {
		host = host + ":" + port
	}
	parsedURL.Host = host
	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")
	parsedURL.RawPath = ""
	parsedURL.Fragment = ""
	return parsedURL.String(), nil
}

// Resolves a root-relative path such as "/robots.txt" against a site URL.
func ResolvePath(baseURL, path string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidURL, baseURL, err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidURL, path, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Reports whether two hosts name the same site, ignoring case and a leading "www.".
func SameSite(hostA, hostB string) bool {
	hostA = strings.TrimPrefix(strings.ToLower(hostA), "www.")
	hostB = strings.TrimPrefix(strings.ToLower(hostB), "www.")
	return hostA == hostB
}

// Checks exact domain membership: the host itself or one of its subdomains.
// URLs carrying credentials never belong to a domain.
func BelongsToDomain(rawURL, domain string) bool {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.User != nil {
		return false
	}
	host := strings.ToLower(parsedURL.Hostname())
	domain = strings.ToLower(strings.TrimPrefix(domain, "www."))
	host = strings.TrimPrefix(host, "www.")
	return host != "" && (host == domain || strings.HasSuffix(host, "."+domain))
}

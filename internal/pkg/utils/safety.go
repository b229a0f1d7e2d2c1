package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPrivateTarget = errors.New("target resolves to a private or reserved address")
	ErrUnsafePath    = errors.New("unsafe file path")
)

var blockedHostnames = map[string]struct{}{
	"localhost":                {},
	"metadata":                 {},
	"metadata.google.internal": {},
}

// Replaced in tests.
var lookupIPAddr = net.DefaultResolver.LookupIPAddr

// Reports whether an IP is loopback, private, link-local, CGNAT, benchmarking or unspecified.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified() || ip.IsInterfaceLocalMulticast() {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		switch {
		case ip4[0] == 0:
			return true
		case ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127:
			return true
		case ip4[0] == 192 && ip4[1] == 0 && ip4[2] == 0:
			return true
		case ip4[0] == 198 && (ip4[1] == 18 || ip4[1] == 19):
			return true
		}
		return false
	}
	if embedded := embeddedIPv4(ip); embedded != nil {
		return IsPrivateIP(embedded)
	}
	return false
}

var nat64Prefix = net.ParseIP("64:ff9b::")

// Returns the IPv4 address carried by a NAT64 (64:ff9b::/96) or 6to4
// (2002::/16) address, or nil.
func embeddedIPv4(ip net.IP) net.IP {
	ip16 := ip.To16()
	if ip16 == nil {
		return nil
	}
	switch {
	case ip16[0] == 0x20 && ip16[1] == 0x02:
		return net.IPv4(ip16[2], ip16[3], ip16[4], ip16[5])
	case ip16[:12].Equal(nat64Prefix[:12]):
		return net.IPv4(ip16[12], ip16[13], ip16[14], ip16[15])
	}
	return nil
}

// Refuses URLs that would make the tool reach internal infrastructure:
// non-http(s) schemes, embedded credentials, internal hostnames and hosts
// resolving to private ranges. A DNS failure is left for the fetch to report.
func ValidatePublicURL(ctx context.Context, rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsedURL.Scheme)
	}
	if parsedURL.User != nil {
		return fmt.Errorf("%w: embedded credentials are not allowed", ErrInvalidURL)
	}
	hostname := strings.ToLower(strings.TrimSuffix(parsedURL.Hostname(), "."))
	if hostname == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if _, blocked := blockedHostnames[hostname]; blocked || strings.HasSuffix(hostname, ".localhost") {
		return fmt.Errorf("%w: host %q", ErrPrivateTarget, hostname)
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if IsPrivateIP(ip) {
			return fmt.Errorf("%w: %s", ErrPrivateTarget, ip)
		}
		return nil
	}

	addrs, err := lookupIPAddr(ctx, hostname)
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		if IsPrivateIP(addr.IP) {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivateTarget, hostname, addr.IP)
		}
	}
	return nil
}

// Resolves a file path and checks its extension (lowercase, with dot) against an allow list.
func ValidateSafePath(path string, allowedExtensions []string, mustExist bool) (string, error) {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrUnsafePath, path, err)
	}
	if evaluated, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = evaluated
	} else if mustExist {
		return "", fmt.Errorf("%w: %q does not exist", ErrUnsafePath, path)
	}

	if mustExist {
		info, err := os.Stat(resolved)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsafePath, err)
		}
		if !info.Mode().IsRegular() {
			return "", fmt.Errorf("%w: %q is not a regular file", ErrUnsafePath, path)
		}
	}

	if len(allowedExtensions) > 0 {
		ext := strings.ToLower(filepath.Ext(resolved))
		allowed := false
		for _, candidate := range allowedExtensions {
			if ext == candidate {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", fmt.Errorf("%w: extension %q not in %s", ErrUnsafePath, ext, strings.Join(allowedExtensions, ", "))
		}
	}
	return resolved, nil
}

// internal/webfetch/validate.go
package webfetch

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// IsPrivateIP reports whether the IP belongs to a private, loopback,
// link-local or otherwise non-routable range.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

// ValidateURL rejects URLs that are not plain http(s) or that point at
// private address space by literal IP.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("URL has no host")
	}

	if ip := net.ParseIP(host); ip != nil && IsPrivateIP(ip) {
		return fmt.Errorf("connection to private IP %s is not allowed", ip)
	}

	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("connection to localhost is not allowed")
	}

	return nil
}

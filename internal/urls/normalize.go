// Package urls canonicalises remote media URLs so they can be compared for identity.
package urls

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalid is returned, wrapped, for any URL that cannot be normalised.
var ErrInvalid = errors.New("invalid url")

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Normalize returns the canonical form of raw.
// Two URLs which refer to the same resource by the rules of RFC 3986
// section 6.2.2 normalise to the same string. Fragments are dropped,
// queries are kept verbatim.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalid)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[u.Scheme]; !ok {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalid, u.Scheme)
	}
	host, err := normalizeHost(u.Hostname())
	if err != nil {
		return "", err
	}
	if port := u.Port(); port != "" && port != defaultPorts[u.Scheme] {
		host = net.JoinHostPort(strings.Trim(host, "[]"), port)
	}
	u.Host = host

	// resolving against an empty reference removes dot segments.
	u = u.ResolveReference(&url.URL{})
	if !strings.Contains(strings.ToUpper(u.RawPath), "%2F") {
		// re-escape from the decoded path so equivalent encodings converge.
		u.RawPath = ""
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

func normalizeHost(host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalid)
	}
	if strings.Contains(host, ":") {
		// IPv6 literal
		return "[" + strings.ToLower(host) + "]", nil
	}
	ascii, err := idna.Punycode.ToASCII(strings.ToLower(strings.TrimSuffix(host, ".")))
	if err != nil {
		return "", fmt.Errorf("%w: host %q: %v", ErrInvalid, host, err)
	}
	return ascii, nil
}

// Equal reports whether a and b normalise to the same URL.
// URLs which cannot be normalised are never equal.
func Equal(a, b string) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return na == nb
}

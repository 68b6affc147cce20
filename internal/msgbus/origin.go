package msgbus

import (
	"net/url"
	"strings"
)

// OriginAllowed reports whether a message origin satisfies the expected
// origin. An empty expected origin accepts anything (server-relayed flows).
// Otherwise the origins must match exactly, except that 127.0.0.1 and
// localhost are interchangeable when scheme and port agree, since browsers
// report loopback callbacks under either name.
func OriginAllowed(origin, expected string) bool {
	expected = strings.TrimSpace(expected)
	if expected == "" {
		return true
	}

	origin = strings.TrimSpace(origin)
	if origin == "" {
		return false
	}
	if strings.EqualFold(origin, expected) {
		return true
	}

	got, err := url.Parse(origin)
	if err != nil {
		return false
	}
	want, err := url.Parse(expected)
	if err != nil {
		return false
	}

	if !strings.EqualFold(got.Scheme, want.Scheme) {
		return false
	}
	if !isLoopbackHost(got.Hostname()) || !isLoopbackHost(want.Hostname()) {
		return false
	}
	return portOrDefault(got) == portOrDefault(want)
}

func isLoopbackHost(host string) bool {
	host = strings.ToLower(host)
	return host == "127.0.0.1" || host == "localhost"
}

func portOrDefault(u *url.URL) string {
	if port := u.Port(); port != "" {
		return port
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return "443"
	case "http":
		return "80"
	}
	return ""
}

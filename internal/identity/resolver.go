package identity

import (
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/openvms/gatekit/internal/config"
)

// UnknownAddress is the fallback address when no client address resolves.
const UnknownAddress = "unknown"

// endpointRewrite is a compiled endpoint-key normalization rule.
type endpointRewrite struct {
	pattern *regexp.Regexp
	label   string
}

// Resolver derives a stable client key and endpoint key from a request.
// It is a pure function of the request and its configuration.
type Resolver struct {
	rewrites []endpointRewrite
}

// NewResolver creates a Resolver with the given endpoint normalization
// patterns. Invalid patterns are skipped.
func NewResolver(patterns []config.EndpointPattern) *Resolver {
	rewrites := make([]endpointRewrite, 0, len(patterns))
	for _, p := range patterns {
		re, err := p.Compile()
		if err != nil {
			continue
		}
		rewrites = append(rewrites, endpointRewrite{pattern: re, label: p.Label})
	}
	return &Resolver{rewrites: rewrites}
}

// ClientKey returns "user:<id>" when an authenticated identity is present on
// the request context, otherwise "ip:<address>".
func (r *Resolver) ClientKey(req *http.Request) string {
	if id := FromContext(req.Context()); id != nil {
		return id.Key()
	}
	return "ip:" + ClientIP(req)
}

// EndpointKey returns "METHOD path", rewritten to a configured label when a
// normalization pattern matches so parameterized paths share one bucket.
func (r *Resolver) EndpointKey(req *http.Request) string {
	key := req.Method + " " + req.URL.Path
	for _, rw := range r.rewrites {
		if rw.pattern.MatchString(key) {
			return rw.label
		}
	}
	return key
}

// ClientIP resolves the client network address: the first entry of
// X-Forwarded-For, then X-Real-IP, then the transport peer address, falling
// back to UnknownAddress.
func ClientIP(req *http.Request) string {
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(req.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if req.RemoteAddr != "" {
		return stripPort(req.RemoteAddr)
	}

	return UnknownAddress
}

// stripPort removes the port from an address string. Handles both IPv4
// ("192.168.1.1:8080") and IPv6 ("[::1]:8080") formats.
func stripPort(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

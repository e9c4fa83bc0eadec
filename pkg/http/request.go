package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// DefaultMaxBodyBytes caps JSON request bodies
const DefaultMaxBodyBytes = 64 << 10

// IPConfig holds the proxies whose forwarding headers are trusted
type IPConfig struct {
	networks []*net.IPNet
}

// NewIPConfig parses trusted proxy CIDR ranges. Invalid ranges are
// skipped and returned so the caller can log them.
func NewIPConfig(trustedProxies []string) (*IPConfig, []string) {
	cfg := &IPConfig{}
	var invalid []string
	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			invalid = append(invalid, cidr)
			continue
		}
		cfg.networks = append(cfg.networks, ipNet)
	}
	return cfg, invalid
}

// ExtractClientIP returns the address of the client that made the request.
// X-Forwarded-For and X-Real-IP are only honored when the direct peer is a
// trusted proxy, so clients cannot spoof their address.
func ExtractClientIP(r *http.Request, cfg *IPConfig) string {
	remoteIP := remoteAddr(r)

	if !cfg.trusts(remoteIP) {
		return remoteIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, ip := range strings.Split(xff, ",") {
			ip = strings.TrimSpace(ip)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}

	return remoteIP
}

// DecodeJSON decodes a single JSON object from the request body into dst,
// rejecting unknown fields and bodies larger than maxBytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body must not exceed %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body must not be empty")
		default:
			return fmt.Errorf("invalid request body: %w", err)
		}
	}

	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func (c *IPConfig) trusts(ip string) bool {
	if c == nil || len(c.networks) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, ipNet := range c.networks {
		if ipNet.Contains(parsed) {
			return true
		}
	}
	return false
}

func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

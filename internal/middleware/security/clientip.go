package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ClientIPExtractor resolves the caller address, trusting forwarded headers
// only when the direct peer is a configured proxy.
type ClientIPExtractor struct {
	trustedProxies []*net.IPNet
}

func NewClientIPExtractor(trustedCIDRs ...string) (*ClientIPExtractor, error) {
	e := &ClientIPExtractor{}
	for _, cidr := range trustedCIDRs {
		if err := e.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *ClientIPExtractor) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	e.trustedProxies = append(e.trustedProxies, network)
	return nil
}

func (e *ClientIPExtractor) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !e.isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (e *ClientIPExtractor) isTrustedProxy(ip net.IP) bool {
	for _, network := range e.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

package audit

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller address for an audit entry. Forwarding
// headers win over RemoteAddr because the billing API sits behind the
// dormitory reverse proxy in every deployment.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP"} {
		if ip := firstAddr(r.Header.Get(header)); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// firstAddr picks the originating client from a comma-separated
// forwarding chain.
func firstAddr(chain string) string {
	first, _, _ := strings.Cut(chain, ",")
	return strings.TrimSpace(first)
}

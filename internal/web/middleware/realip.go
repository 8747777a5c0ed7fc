package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// ProxyList is a set of networks whose forwarding headers are believed.
type ProxyList []*net.IPNet

// ParseProxyList accepts CIDRs or bare addresses. Invalid entries are
// logged and skipped.
func ParseProxyList(entries []string) ProxyList {
	var nets ProxyList
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, network, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, network)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			slog.Warn("realip: skipping invalid trusted proxy", "entry", entry)
			continue
		}
		bits := 128
		if ip.To4() != nil {
			ip, bits = ip.To4(), 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// Contains reports whether ip falls inside any listed network.
func (p ProxyList) Contains(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range p {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the forwarded client address when the connection comes
// from a trusted proxy, otherwise the connection address. X-Real-IP wins
// over the first X-Forwarded-For entry; malformed values are ignored.
func (p ProxyList) ClientIP(r *http.Request) string {
	remote := hostOnly(r.RemoteAddr)
	if !p.Contains(net.ParseIP(remote)) {
		return r.RemoteAddr
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return r.RemoteAddr
}

// TrustedRealIP rewrites RemoteAddr from forwarding headers, but only for
// requests arriving from one of trustedCIDRs. Without trusted proxies the
// headers are never believed, so clients cannot dodge rate limits by
// spoofing them.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	proxies := ParseProxyList(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.RemoteAddr = proxies.ClientIP(r)
			next.ServeHTTP(w, r)
		})
	}
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

package observability

import (
	"net"
	"net/http"
	"strings"
)

// RequestMeta is the client identity a handshake carries into lifecycle
// events.
type RequestMeta struct {
	DeviceID  string
	RequestID string
	IP        string
	UserAgent string
}

// RequestMetaFrom reads the identity headers set by clients and the edge
// proxy.
func RequestMetaFrom(r *http.Request) RequestMeta {
	return RequestMeta{
		DeviceID:  r.Header.Get("X-Device-Id"),
		RequestID: r.Header.Get("X-Request-Id"),
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-Ip")); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

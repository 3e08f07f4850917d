package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the function used to identify a client. Behind a proxy the
// last X-Forwarded-For hop, the one appended by that proxy, is used. Earlier
// hops are client-supplied. Without a proxy only the socket address counts.
func ClientIP(trustProxy bool) func(*http.Request) string {
	if trustProxy {
		return forwardedIP
	}
	return socketIP
}

func forwardedIP(r *http.Request) string {
	values := r.Header.Values("X-Forwarded-For")
	if len(values) == 0 {
		return socketIP(r)
	}
	last := values[len(values)-1]
	if i := strings.LastIndexByte(last, ','); i >= 0 {
		last = last[i+1:]
	}
	if ip := strings.TrimSpace(last); ip != "" {
		return ip
	}
	return socketIP(r)
}

func socketIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package usecase

import (
	"net"
	"net/http"
	"strings"

	"github.com/user/inventory-audit/internal/domain"
)

const unknown = "unknown"

// uaPattern maps a lowercase user-agent substring to a coarse category.
// Order matters: more specific needles come first (Android UAs also contain
// "linux", Chrome UAs also contain "safari").
type uaPattern struct {
	needle string
	name   string
}

var osPatterns = []uaPattern{
	{"windows", "Windows"},
	{"android", "Android"},
	{"iphone", "iOS"},
	{"ipad", "iOS"},
	{"mac os", "macOS"},
	{"macintosh", "macOS"},
	{"linux", "Linux"},
}

var browserPatterns = []uaPattern{
	{"edg", "Edge"},
	{"opr", "Opera"},
	{"opera", "Opera"},
	{"firefox", "Firefox"},
	{"chrome", "Chrome"},
	{"safari", "Safari"},
}

func matchPattern(ua string, patterns []uaPattern) string {
	for _, p := range patterns {
		if strings.Contains(ua, p.needle) {
			return p.name
		}
	}
	return unknown
}

// parseUserAgent classifies a raw client string into coarse OS and browser
// categories, defaulting to "unknown".
func parseUserAgent(ua string) (osName, browser string) {
	lower := strings.ToLower(ua)
	return matchPattern(lower, osPatterns), matchPattern(lower, browserPatterns)
}

// clientIP resolves the client network address with a fixed precedence:
// proxy-forwarded header, proxy-real-address header, transport peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First entry is the originating client.
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return unknown
}

// deriveClientContext snapshots client metadata from the request. A nil
// request degrades every field to "unknown", never fails.
func deriveClientContext(r *http.Request) domain.ClientContext {
	if r == nil {
		return domain.ClientContext{IPAddress: unknown, OS: unknown, Browser: unknown, UserAgent: unknown}
	}
	ua := r.UserAgent()
	osName, browser := parseUserAgent(ua)
	if ua == "" {
		ua = unknown
	}
	return domain.ClientContext{
		IPAddress: clientIP(r),
		OS:        osName,
		Browser:   browser,
		UserAgent: ua,
	}
}

// flattenQuery collapses query values to single comma-joined strings for the
// persisted event record.
func flattenQuery(r *http.Request) map[string]string {
	values := r.URL.Query()
	if len(values) == 0 {
		return nil
	}
	flat := make(map[string]string, len(values))
	for k, v := range values {
		flat[k] = strings.Join(v, ",")
	}
	return flat
}

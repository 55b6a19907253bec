package usecase

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{
			name:       "forwarded header wins",
			forwarded:  "203.0.113.7, 10.0.0.1",
			realIP:     "198.51.100.2",
			remoteAddr: "192.0.2.1:4242",
			want:       "203.0.113.7",
		},
		{
			name:       "real ip second",
			realIP:     "198.51.100.2",
			remoteAddr: "192.0.2.1:4242",
			want:       "198.51.100.2",
		},
		{
			name:       "peer address third",
			remoteAddr: "192.0.2.1:4242",
			want:       "192.0.2.1",
		},
		{
			name:       "peer address without port",
			remoteAddr: "192.0.2.1",
			want:       "192.0.2.1",
		},
		{
			name: "nothing known",
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}

			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name        string
		ua          string
		wantOS      string
		wantBrowser string
	}{
		{
			name:        "windows chrome",
			ua:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36",
			wantOS:      "Windows",
			wantBrowser: "Chrome",
		},
		{
			name:        "mac safari",
			ua:          "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15",
			wantOS:      "macOS",
			wantBrowser: "Safari",
		},
		{
			name:        "android is not linux",
			ua:          "Mozilla/5.0 (Linux; Android 14; Pixel 8) Chrome/120.0 Mobile Safari/537.36",
			wantOS:      "Android",
			wantBrowser: "Chrome",
		},
		{
			name:        "edge is not chrome",
			ua:          "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0 Safari/537.36 Edg/120.0",
			wantOS:      "Windows",
			wantBrowser: "Edge",
		},
		{
			name:        "iphone",
			ua:          "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Version/17.0 Mobile Safari/604.1",
			wantOS:      "iOS",
			wantBrowser: "Safari",
		},
		{
			name:        "linux firefox",
			ua:          "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0",
			wantOS:      "Linux",
			wantBrowser: "Firefox",
		},
		{
			name:        "no match",
			ua:          "curl/8.4.0",
			wantOS:      "unknown",
			wantBrowser: "unknown",
		},
		{
			name:        "empty",
			ua:          "",
			wantOS:      "unknown",
			wantBrowser: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			osName, browser := parseUserAgent(tt.ua)
			if osName != tt.wantOS || browser != tt.wantBrowser {
				t.Errorf("parseUserAgent(%q) = (%q, %q), want (%q, %q)", tt.ua, osName, browser, tt.wantOS, tt.wantBrowser)
			}
		})
	}
}

func TestDeriveClientContext_NilRequest(t *testing.T) {
	cc := deriveClientContext(nil)
	if cc.IPAddress != "unknown" || cc.OS != "unknown" || cc.Browser != "unknown" || cc.UserAgent != "unknown" {
		t.Errorf("nil request must degrade every field to unknown: %+v", cc)
	}
}

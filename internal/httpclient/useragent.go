package httpclient

import "strings"

// Browser User-Agent presets.
var userAgents = map[string]string{
	"chrome":  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"firefox": "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"safari":  "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4.1 Safari/605.1.15",
}

// ResolveUserAgent returns custom when set, otherwise the preset for browser.
// Unknown browsers get the chrome preset.
func ResolveUserAgent(custom, browser string) string {
	if ua := strings.TrimSpace(custom); ua != "" {
		return ua
	}
	if ua, ok := userAgents[strings.ToLower(strings.TrimSpace(browser))]; ok {
		return ua
	}
	return userAgents["chrome"]
}

package httpclient

import "strings"

// BuildTargetURL joins scheme, domain and endpoint into an absolute URL. A
// scheme already present on domain is dropped in favour of https.
func BuildTargetURL(https bool, domain, endpoint string) string {
	scheme := "http"
	if https {
		scheme = "https"
	}

	domain = strings.TrimSpace(domain)
	lower := strings.ToLower(domain)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			domain = domain[len(prefix):]
			break
		}
	}
	domain = strings.TrimRight(domain, "/")

	endpoint = strings.TrimSpace(endpoint)
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	return scheme + "://" + domain + endpoint
}

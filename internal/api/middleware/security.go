package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// заголовки в духе helmet: основные ставит secure, остальные добавляем сами
var securityOptions = secure.Options{
	CustomFrameOptionsValue: "SAMEORIGIN",
	ContentTypeNosniff:      true,
	BrowserXssFilter:        true,
	CustomBrowserXssValue:   "0",
	ReferrerPolicy:          "no-referrer",
	STSSeconds:              15552000,
	STSIncludeSubdomains:    true,
	ForceSTSHeader:          true,
}

var extraSecurityHeaders = map[string]string{
	"X-DNS-Prefetch-Control":            "off",
	"X-Download-Options":                "noopen",
	"X-Permitted-Cross-Domain-Policies": "none",
	"Cross-Origin-Opener-Policy":        "same-origin",
	"Cross-Origin-Resource-Policy":      "same-origin",
	"Origin-Agent-Cluster":              "?1",
}

// SecurityHeaders выставляет защитные заголовки на каждый ответ
func SecurityHeaders(next http.Handler) http.Handler {
	withExtra := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range extraSecurityHeaders {
			h.Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
	return secure.New(securityOptions).Handler(withExtra)
}

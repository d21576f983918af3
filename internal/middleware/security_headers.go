package middleware

import (
	"net/http"
	"strings"
)

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
// hstsがtrueの場合（BASE_URLがhttps）はStrict-Transport-Securityも付与する。
//
// /auth/* のコールバックURLには認可コードやOpenIDアサーションが載るため、
// Refererで外部に漏れないようno-referrerとする。
// /auth/* と /api/* はセッション由来の内容を返すためキャッシュさせない。
func NewSecurityHeadersMiddleware(hsts bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if hsts {
				h.Set("Strict-Transport-Security", "max-age=31536000")
			}

			path := r.URL.Path
			switch {
			case strings.HasPrefix(path, "/auth/"):
				h.Set("Referrer-Policy", "no-referrer")
				h.Set("Cache-Control", "no-store")
			case strings.HasPrefix(path, "/api/"):
				h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
				h.Set("Cache-Control", "no-store")
			default:
				h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			}
			next.ServeHTTP(w, r)
		})
	}
}

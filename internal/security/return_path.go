package security

import (
	"net/url"
	"strings"
)

// SafeReturnPath はサイト内の絶対パスだけを戻り先として受け入れる。
// "//host" やスキーム付きURLなど外部へ遷移しうる値は空文字列を返す。
func SafeReturnPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return ""
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	if strings.ContainsAny(raw, "\r\n") {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return raw
}

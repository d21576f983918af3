package handler

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// HomePage は "/" で返すページ。
const HomePage = "home.html"

// NewStaticHandler はdir配下の静的ファイルを配信するハンドラーを返す。
// ドットファイルとhidden に含まれるファイル名は404にする。
func NewStaticHandler(dir string, hidden ...string) http.Handler {
	blocked := make(map[string]struct{}, len(hidden))
	for _, name := range hidden {
		if name != "" {
			blocked[name] = struct{}{}
		}
	}
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, seg := range strings.Split(path.Clean("/"+r.URL.Path), "/") {
			if strings.HasPrefix(seg, ".") {
				http.NotFound(w, r)
				return
			}
			if _, ok := blocked[seg]; ok {
				http.NotFound(w, r)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}

// NewHomeHandler はdir/home.htmlを返すハンドラーを返す。
func NewHomeHandler(dir string) http.HandlerFunc {
	home := filepath.Join(dir, HomePage)
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, home)
	}
}

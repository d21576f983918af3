// Package session はgorilla/sessionsの署名付きCookieに認証断片を保持する。
package session

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/hitoshi/accountlink/internal/model"
)

// CookieName はセッションCookieの名前。
const CookieName = "accountlink_session"

const (
	keyUser     = "user"
	keySteam    = "steam"
	keyReturnTo = "afterDiscordRedirect"
)

func init() {
	gob.Register(&model.DiscordUser{})
	gob.Register(&model.SteamUser{})
}

// Config はセッションCookieの設定。
type Config struct {
	Secret string
	MaxAge int // 秒
	Secure bool
}

// Manager はリクエストごとのSessionを生成する。
type Manager struct {
	store sessions.Store
}

// NewManager はCookieStoreを使うManagerを生成する。
func NewManager(cfg Config) *Manager {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	// Cookie属性だけでなく署名検証側の有効期限も揃える
	store.MaxAge(cfg.MaxAge)
	return &Manager{store: store}
}

// Get はリクエストのCookieからSessionを復元する。
// Cookieが壊れている、または署名鍵が変わった場合は空のSessionを返す。
func (m *Manager) Get(r *http.Request) *Session {
	raw, err := m.store.Get(r, CookieName)
	if err != nil {
		slog.Warn("discarding undecodable session cookie",
			slog.String("error", err.Error()),
		)
	}
	if raw == nil {
		raw = sessions.NewSession(m.store, CookieName)
	}
	if err != nil {
		// 復号できなかった値は信用しない
		raw.Values = make(map[interface{}]interface{})
	}
	return &Session{raw: raw}
}

// Session は1ブラウザセッション分の認証断片を扱う。
// 変更があった場合のみSaveでCookieを書き出す。
type Session struct {
	raw   *sessions.Session
	dirty bool
}

// User はDiscordユーザーの断片を返す。未認証ならnil。
func (s *Session) User() *model.DiscordUser {
	u, _ := s.raw.Values[keyUser].(*model.DiscordUser)
	return u
}

// SetUser はDiscordユーザーの断片を設定する。
func (s *Session) SetUser(u *model.DiscordUser) {
	s.raw.Values[keyUser] = u
	s.dirty = true
}

// Steam はSteamユーザーの断片を返す。未認証ならnil。
func (s *Session) Steam() *model.SteamUser {
	st, _ := s.raw.Values[keySteam].(*model.SteamUser)
	return st
}

// SetSteam はSteamユーザーの断片を設定する。
func (s *Session) SetSteam(st *model.SteamUser) {
	s.raw.Values[keySteam] = st
	s.dirty = true
}

// SetReturnTo はDiscord認証完了後の戻り先を記憶する。
func (s *Session) SetReturnTo(path string) {
	s.raw.Values[keyReturnTo] = path
	s.dirty = true
}

// TakeReturnTo は記憶した戻り先を返し、セッションから削除する。
func (s *Session) TakeReturnTo() string {
	path, ok := s.raw.Values[keyReturnTo].(string)
	if !ok {
		return ""
	}
	delete(s.raw.Values, keyReturnTo)
	s.dirty = true
	return path
}

// Identity は現在の断片をまとめて返す。
func (s *Session) Identity() model.SessionIdentity {
	return model.SessionIdentity{User: s.User(), Steam: s.Steam()}
}

// Save は変更があればセッションCookieを書き出す。
// レスポンスヘッダー送信前に呼ぶ必要がある。
func (s *Session) Save(r *http.Request, w http.ResponseWriter) error {
	if !s.dirty {
		return nil
	}
	if err := s.raw.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.dirty = false
	return nil
}

// Destroy はすべての断片を破棄し、Cookieを失効させる。
func (s *Session) Destroy(r *http.Request, w http.ResponseWriter) error {
	for k := range s.raw.Values {
		delete(s.raw.Values, k)
	}
	if s.raw.Options == nil {
		s.raw.Options = &sessions.Options{Path: "/"}
	}
	s.raw.Options.MaxAge = -1
	if err := s.raw.Save(r, w); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	s.dirty = false
	return nil
}

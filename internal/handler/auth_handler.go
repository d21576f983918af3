// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/accountlink/internal/auth"
	"github.com/hitoshi/accountlink/internal/middleware"
	"github.com/hitoshi/accountlink/internal/model"
	"github.com/hitoshi/accountlink/internal/session"
)

// LogoutLanding はログアウト後の遷移先。
const LogoutLanding = "/home.html"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	BeginDiscord(sess auth.IdentitySession, redirect string) (string, error)
	CompleteDiscord(ctx context.Context, sess auth.IdentitySession, code string) (string, error)
	BeginSteam() string
	CompleteSteam(ctx context.Context, sess auth.IdentitySession, query url.Values) (string, error)
	CurrentUser(sess auth.IdentitySession) (*model.DiscordUser, bool)
	LinkStatus(sess auth.IdentitySession) auth.LinkStatus
}

// AuthHandler はDiscord/Steam認証フローのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// DiscordLogin はDiscord OAuth2フローを開始する。
// GET /auth/discord[?redirect=/path]
func (h *AuthHandler) DiscordLogin(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}

	target, err := h.service.BeginDiscord(sess, r.URL.Query().Get("redirect"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	h.saveAndRedirect(w, r, sess, target)
}

// DiscordCallback はDiscordからのコールバックを処理する。
// GET /auth/discord/callback?code=xxx
func (h *AuthHandler) DiscordCallback(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}

	target, err := h.service.CompleteDiscord(r.Context(), sess, r.URL.Query().Get("code"))
	if err != nil {
		// 照合の失敗時もユーザーはセッションに残す
		saveBestEffort(w, r, sess)
		middleware.WriteError(w, r, err)
		return
	}

	h.saveAndRedirect(w, r, sess, target)
}

// SteamLogin はSteam OpenIDフローを開始する。
// GET /auth/steam
func (h *AuthHandler) SteamLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.service.BeginSteam(), http.StatusFound)
}

// SteamCallback はSteamからのコールバックを処理する。
// GET /auth/steam/callback?openid.*
func (h *AuthHandler) SteamCallback(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}

	target, err := h.service.CompleteSteam(r.Context(), sess, r.URL.Query())
	if err != nil {
		saveBestEffort(w, r, sess)
		middleware.WriteError(w, r, err)
		return
	}

	h.saveAndRedirect(w, r, sess, target)
}

// Logout はセッションを破棄する。
// 破棄に失敗してもログに残してリダイレクトする。
// GET /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, err := middleware.SessionFromContext(r.Context()); err == nil {
		if destroyErr := sess.Destroy(r, w); destroyErr != nil {
			slog.Error("failed to destroy session", slog.String("error", destroyErr.Error()))
		}
	}

	http.Redirect(w, r, LogoutLanding, http.StatusFound)
}

// saveAndRedirect はセッションを保存してからリダイレクトする。
func (h *AuthHandler) saveAndRedirect(w http.ResponseWriter, r *http.Request, sess *session.Session, target string) {
	if err := sess.Save(r, w); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// saveBestEffort はエラー応答の前にセッションを保存する。失敗はログのみ。
func saveBestEffort(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Save(r, w); err != nil {
		slog.Warn("failed to save session", slog.String("error", err.Error()))
	}
}

// sessionOrError はコンテキストのセッションを返す。無い場合は500を書き込む。
func sessionOrError(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return nil, false
	}
	return sess, true
}

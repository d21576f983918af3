package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/accountlink/internal/model"
)

// meResponse は /api/me のレスポンス。
type meResponse struct {
	Authenticated bool               `json:"authenticated"`
	User          *model.DiscordUser `json:"user,omitempty"`
}

// APIHandler はセッション状態を返すJSON APIのハンドラー。
type APIHandler struct {
	service AuthServiceInterface
}

// NewAPIHandler はAPIHandlerを生成する。
func NewAPIHandler(service AuthServiceInterface) *APIHandler {
	return &APIHandler{service: service}
}

// Me は現在のDiscordユーザーを返す。未認証なら401。
// GET /api/me
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}

	user, authenticated := h.service.CurrentUser(sess)
	if !authenticated {
		writeJSON(w, http.StatusUnauthorized, meResponse{Authenticated: false})
		return
	}

	writeJSON(w, http.StatusOK, meResponse{Authenticated: true, User: user})
}

// LinkStatus はセッション上のSteam/Discordの断片を返す。未取得の側はnull。
// GET /api/link-status
func (h *APIHandler) LinkStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, h.service.LinkStatus(sess))
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

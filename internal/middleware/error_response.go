package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/accountlink/internal/model"
)

// WriteError はエラーをHTTPステータスとプレーンテキストのボディで書き込む。
// AppError以外は500として扱い、メッセージを "Unexpected error: " に続けて返す。
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := model.AsAppError(err)
	if !ok {
		appErr = &model.AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Unexpected error: " + err.Error(),
			Err:     err,
		}
	}

	status := appErr.StatusCode()
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request failed",
		slog.String("path", r.URL.Path),
		slog.String("code", appErr.Code),
		slog.String("error", err.Error()),
		slog.String("request_id", RequestIDFromContext(r.Context())),
	)

	http.Error(w, appErr.Message, status)
}

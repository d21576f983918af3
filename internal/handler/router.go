package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/accountlink/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Sessions    middleware.SessionLoader
	RateLimiter *middleware.RateLimiter // nilならレート制限なし
	Logger      *slog.Logger            // nilならslog.Default()
	HSTS        bool                    // https運用時にStrict-Transport-Securityを付与
	TrustProxy  bool                    // trueならX-Real-IP等からクライアントIPを復元する

	// 認証
	AuthService AuthServiceInterface

	// 監視
	StatusRecorder middleware.StatusRecorder // nilなら集計しない
	MetricsHandler http.Handler              // nilなら /metrics を公開しない

	// 静的ファイル
	StaticDir   string
	HiddenFiles []string
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → (RealIP) → SecurityHeaders → RequestID → StatusMetrics → Session → Logging
//
// 認証ルート（/auth/*）にはさらにクライアントIPごとのレート制限をかける。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.TrustProxy {
		// ヘッダーを上書きするプロキシの背後でのみ有効にする。直接公開時は偽装できる。
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewRequestIDMiddleware())
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewStatusMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewSessionMiddleware(deps.Sessions))
	r.Use(middleware.NewLoggingMiddleware(logger, "/health", "/metrics"))

	authHandler := NewAuthHandler(deps.AuthService)
	apiHandler := NewAPIHandler(deps.AuthService)

	// --- 監視 ---
	r.Get("/health", Health)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証フロー ---
	r.Route("/auth", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.AuthMiddleware())
		}

		r.Get("/discord", authHandler.DiscordLogin)
		r.Get("/discord/callback", authHandler.DiscordCallback)
		r.Get("/steam", authHandler.SteamLogin)
		r.Get("/steam/callback", authHandler.SteamCallback)
		r.Get("/logout", authHandler.Logout)
	})

	// --- セッション参照API ---
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", apiHandler.Me)
		r.Get("/link-status", apiHandler.LinkStatus)
	})

	// --- 静的ファイル ---
	r.Get("/", NewHomeHandler(deps.StaticDir))
	r.Handle("/*", NewStaticHandler(deps.StaticDir, deps.HiddenFiles...))

	return r
}

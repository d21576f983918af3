// Package auth はDiscord OAuth2とSteam OpenIDの認証フローを提供する。
package auth

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/hitoshi/accountlink/internal/link"
	"github.com/hitoshi/accountlink/internal/metrics"
	"github.com/hitoshi/accountlink/internal/model"
	"github.com/hitoshi/accountlink/internal/security"
)

// 認証完了後の既定の遷移先
const (
	DefaultDiscordLanding = "/home.html"
	SteamLanding          = "/link.html"
)

const (
	providerDiscord = "discord"
	providerSteam   = "steam"
)

// DiscordAuthenticator はDiscord OAuth2プロバイダーのインターフェース。
type DiscordAuthenticator interface {
	// Configured はクライアント認証情報が揃っているかを返す。
	Configured() bool
	// AuthURL は認可URLを生成する。
	AuthURL() string
	// Authenticate は認可コードを交換し、ユーザー情報を取得する。
	Authenticate(ctx context.Context, code string) (*model.DiscordUser, error)
}

// SteamAuthenticator はSteam OpenIDプロバイダーのインターフェース。
type SteamAuthenticator interface {
	AuthURL() string
	Authenticate(ctx context.Context, query url.Values) (*model.SteamUser, error)
}

// LinkReconciler はセッション断片からリンクを保存するインターフェース。
type LinkReconciler interface {
	ReconcileIfComplete(ctx context.Context, identity model.SessionIdentity) (link.Result, error)
}

// IdentitySession はリクエストに紐づくセッション断片の読み書きを表す。
type IdentitySession interface {
	User() *model.DiscordUser
	SetUser(u *model.DiscordUser)
	Steam() *model.SteamUser
	SetSteam(st *model.SteamUser)
	SetReturnTo(path string)
	TakeReturnTo() string
	Identity() model.SessionIdentity
}

// Recorder は認証フローのメトリクスを記録するインターフェース。
type Recorder interface {
	RecordAuth(provider, outcome string)
	RecordProviderLatency(provider string, duration time.Duration)
}

// LinkStatus は現在のセッションの紐付け状況を表す。
type LinkStatus struct {
	Steam   *model.SteamUser   `json:"steam"`
	Discord *model.DiscordUser `json:"discord"`
}

// Service は認証フローのオーケストレーションを担う。
type Service struct {
	discord    DiscordAuthenticator
	steam      SteamAuthenticator
	reconciler LinkReconciler
	recorder   Recorder
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(
	discord DiscordAuthenticator,
	steam SteamAuthenticator,
	reconciler LinkReconciler,
	recorder Recorder,
) *Service {
	return &Service{
		discord:    discord,
		steam:      steam,
		reconciler: reconciler,
		recorder:   recorder,
	}
}

// BeginDiscord はDiscordの認可URLを返す。
// redirectが安全なローカルパスであれば、コールバック後の戻り先として記憶する。
func (s *Service) BeginDiscord(sess IdentitySession, redirect string) (string, error) {
	if !s.discord.Configured() {
		return "", model.NewConfigurationError()
	}

	if redirect != "" {
		if path := security.SafeReturnPath(redirect); path != "" {
			sess.SetReturnTo(path)
		} else {
			slog.Warn("ignoring unsafe redirect parameter", slog.String("redirect", redirect))
		}
	}

	s.recordAuth(providerDiscord, metrics.OutcomeRedirected)
	return s.discord.AuthURL(), nil
}

// CompleteDiscord は認可コードを検証してセッションにユーザーを保存し、遷移先を返す。
// 手順はコード交換→プロフィール取得→セッション書き込み→照合→遷移先決定の順で固定。
func (s *Service) CompleteDiscord(ctx context.Context, sess IdentitySession, code string) (string, error) {
	// ネットワーク呼び出しより前に入力を検証する
	if code == "" {
		s.recordAuth(providerDiscord, metrics.OutcomeFailed)
		return "", model.NewMissingCodeError()
	}
	if !s.discord.Configured() {
		s.recordAuth(providerDiscord, metrics.OutcomeFailed)
		return "", model.NewConfigurationError()
	}

	start := time.Now()
	user, err := s.discord.Authenticate(ctx, code)
	s.recordLatency(providerDiscord, time.Since(start))
	if err != nil {
		s.recordAuth(providerDiscord, metrics.OutcomeFailed)
		return "", err
	}

	sess.SetUser(user)
	slog.Info("discord user authenticated",
		slog.String("discord_id", user.ID),
		slog.String("discord_username", user.Tag()),
	)

	if _, err := s.reconciler.ReconcileIfComplete(ctx, sess.Identity()); err != nil {
		s.recordAuth(providerDiscord, metrics.OutcomeFailed)
		return "", err
	}

	s.recordAuth(providerDiscord, metrics.OutcomeSuccess)

	if path := sess.TakeReturnTo(); path != "" {
		return path, nil
	}
	return DefaultDiscordLanding, nil
}

// BeginSteam はSteam OpenIDのログインURLを返す。
func (s *Service) BeginSteam() string {
	s.recordAuth(providerSteam, metrics.OutcomeRedirected)
	return s.steam.AuthURL()
}

// CompleteSteam はOpenIDアサーションを検証してセッションにSteamIDを保存し、遷移先を返す。
// 検証に失敗した場合、セッションもリンクストアも変更しない。
func (s *Service) CompleteSteam(ctx context.Context, sess IdentitySession, query url.Values) (string, error) {
	start := time.Now()
	steam, err := s.steam.Authenticate(ctx, query)
	s.recordLatency(providerSteam, time.Since(start))
	if err != nil {
		s.recordAuth(providerSteam, metrics.OutcomeFailed)
		return "", err
	}

	sess.SetSteam(steam)
	slog.Info("steam user authenticated", slog.String("steam_id", steam.SteamID))

	if _, err := s.reconciler.ReconcileIfComplete(ctx, sess.Identity()); err != nil {
		s.recordAuth(providerSteam, metrics.OutcomeFailed)
		return "", err
	}

	s.recordAuth(providerSteam, metrics.OutcomeSuccess)
	return SteamLanding, nil
}

// CurrentUser はセッションのDiscordユーザーを返す。未認証の場合はfalse。
func (s *Service) CurrentUser(sess IdentitySession) (*model.DiscordUser, bool) {
	user := sess.User()
	return user, user != nil
}

// LinkStatus はセッションの両断片を返す。
func (s *Service) LinkStatus(sess IdentitySession) LinkStatus {
	return LinkStatus{Steam: sess.Steam(), Discord: sess.User()}
}

func (s *Service) recordAuth(provider, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordAuth(provider, outcome)
	}
}

func (s *Service) recordLatency(provider string, d time.Duration) {
	if s.recorder != nil {
		s.recorder.RecordProviderLatency(provider, d)
	}
}

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/accountlink/internal/model"
	"github.com/hitoshi/accountlink/internal/security"
)

const (
	defaultSteamOpenIDURL     = "https://steamcommunity.com/openid/login"
	defaultSteamPlayerSummary = "https://api.steampowered.com/ISteamUser/GetPlayerSummaries/v2/"

	openIDNamespace      = "http://specs.openid.net/auth/2.0"
	openIDIdentifierSel  = "http://specs.openid.net/auth/2.0/identifier_select"
	openIDValidAssertion = "is_valid:true"

	// SteamCallbackPath はSteam OpenIDの戻り先パス。
	SteamCallbackPath = "/auth/steam/callback"
)

// SteamOpenIDConfig はSteam OpenIDプロバイダーの設定。
type SteamOpenIDConfig struct {
	// BaseURL はこのサービス自身の公開URL。realmとreturn_toの組み立てに使う。
	BaseURL string
	// APIKey が空の場合は表示名を取得しない。
	APIKey string

	// テスト用にオーバーライド可能なURL
	OpenIDURL        string
	PlayerSummaryURL string

	// nilの場合はhttp.DefaultClientを使う
	HTTPClient *http.Client
}

// SteamOpenIDProvider はSteamのOpenID 2.0ログインを提供する。
type SteamOpenIDProvider struct {
	config SteamOpenIDConfig
}

// NewSteamOpenIDProvider はSteamOpenIDProviderを生成する。
func NewSteamOpenIDProvider(config SteamOpenIDConfig) *SteamOpenIDProvider {
	if config.OpenIDURL == "" {
		config.OpenIDURL = defaultSteamOpenIDURL
	}
	if config.PlayerSummaryURL == "" {
		config.PlayerSummaryURL = defaultSteamPlayerSummary
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	return &SteamOpenIDProvider{config: config}
}

// AuthURL はcheckid_setupリクエストのURLを生成する。
// identityとclaimed_idにはidentifier_selectを指定し、Steam側でアカウントを選ばせる。
func (p *SteamOpenIDProvider) AuthURL() string {
	params := url.Values{
		"openid.ns":         {openIDNamespace},
		"openid.mode":       {"checkid_setup"},
		"openid.return_to":  {p.config.BaseURL + SteamCallbackPath},
		"openid.realm":      {p.config.BaseURL},
		"openid.identity":   {openIDIdentifierSel},
		"openid.claimed_id": {openIDIdentifierSel},
	}
	return p.config.OpenIDURL + "?" + params.Encode()
}

// Authenticate はコールバックのopenid.*パラメータをSteamに送り返して検証し、SteamIDを取り出す。
func (p *SteamOpenIDProvider) Authenticate(ctx context.Context, query url.Values) (*model.SteamUser, error) {
	claimedID := query.Get("openid.claimed_id")
	if claimedID == "" {
		return nil, model.NewMissingClaimedIDError()
	}

	// 1. check_authenticationで署名を検証
	if err := p.verify(ctx, query); err != nil {
		return nil, err
	}

	// 2. claimed_idの最後のパスセグメントがSteamID
	parts := strings.Split(claimedID, "/")
	user := &model.SteamUser{SteamID: parts[len(parts)-1]}

	// 3. APIキーがあれば表示名を補完（失敗してもエラーにしない）
	if p.config.APIKey != "" {
		if name := p.lookupPersonaName(ctx, user.SteamID); name != "" {
			user.PersonaName = &name
		}
	}

	return user, nil
}

// verify はopenid.*パラメータをmode=check_authenticationでSteamにPOSTする。
func (p *SteamOpenIDProvider) verify(ctx context.Context, query url.Values) error {
	form := url.Values{}
	for key, values := range query {
		if !strings.HasPrefix(key, "openid.") || key == "openid.mode" {
			continue
		}
		for _, v := range values {
			form.Add(key, v)
		}
	}
	form.Set("openid.mode", "check_authentication")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.OpenIDURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.config.HTTPClient.Do(req)
	if err != nil {
		return model.NewProviderTransportError("steam", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewProviderTransportError("steam", err)
	}

	if !strings.Contains(string(body), openIDValidAssertion) {
		slog.Warn("steam openid assertion rejected",
			slog.Int("http_status", resp.StatusCode),
		)
		return model.NewInvalidAssertionError()
	}

	return nil
}

// playerSummaries はGetPlayerSummariesのレスポンス。
type playerSummaries struct {
	Response struct {
		Players []struct {
			SteamID     string `json:"steamid"`
			PersonaName string `json:"personaname"`
		} `json:"players"`
	} `json:"response"`
}

// lookupPersonaName はSteam Web APIで表示名を取得する。
// 取得できなかった場合は空文字列を返す。
func (p *SteamOpenIDProvider) lookupPersonaName(ctx context.Context, steamID string) string {
	params := url.Values{
		"key":      {p.config.APIKey},
		"steamids": {steamID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.PlayerSummaryURL+"?"+params.Encode(), nil)
	if err != nil {
		slog.Warn("failed to create player summary request", slog.String("error", err.Error()))
		return ""
	}

	resp, err := p.config.HTTPClient.Do(req)
	if err != nil {
		slog.Warn("player summary request failed",
			slog.String("steam_id", steamID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("player summary returned error status",
			slog.String("steam_id", steamID),
			slog.Int("http_status", resp.StatusCode),
		)
		return ""
	}

	var summaries playerSummaries
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		slog.Warn("failed to parse player summary", slog.String("error", err.Error()))
		return ""
	}
	if len(summaries.Response.Players) == 0 {
		return ""
	}

	return security.NormalizeDisplayName(summaries.Response.Players[0].PersonaName)
}

// compile-time interface check
var _ SteamAuthenticator = (*SteamOpenIDProvider)(nil)

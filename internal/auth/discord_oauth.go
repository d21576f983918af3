package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"

	"github.com/hitoshi/accountlink/internal/model"
)

const (
	defaultDiscordAuthURL  = "https://discord.com/api/oauth2/authorize"
	defaultDiscordTokenURL = "https://discord.com/api/oauth2/token"
	defaultDiscordUserURL  = "https://discord.com/api/users/@me"

	discordScopeIdentify = "identify"
)

// DiscordOAuthConfig はDiscord OAuth2プロバイダーの設定。
type DiscordOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL  string
	TokenURL string
	UserURL  string

	// nilの場合はhttp.DefaultClientを使う
	HTTPClient *http.Client
}

// DiscordOAuthProvider はDiscord OAuth2の認可コードフローを提供する。
type DiscordOAuthProvider struct {
	oauth      *oauth2.Config
	userURL    string
	httpClient *http.Client
}

// NewDiscordOAuthProvider はDiscordOAuthProviderを生成する。
func NewDiscordOAuthProvider(config DiscordOAuthConfig) *DiscordOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultDiscordAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultDiscordTokenURL
	}
	if config.UserURL == "" {
		config.UserURL = defaultDiscordUserURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	return &DiscordOAuthProvider{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       []string{discordScopeIdentify},
			Endpoint: oauth2.Endpoint{
				AuthURL:   config.AuthURL,
				TokenURL:  config.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userURL:    config.UserURL,
		httpClient: config.HTTPClient,
	}
}

// Configured はクライアントIDとシークレットが設定されているかを返す。
func (p *DiscordOAuthProvider) Configured() bool {
	return p.oauth.ClientID != "" && p.oauth.ClientSecret != ""
}

// AuthURL はDiscordの認可URLを生成する。スコープはidentifyのみ。
func (p *DiscordOAuthProvider) AuthURL() string {
	return p.oauth.AuthCodeURL("")
}

// Authenticate は認可コードをアクセストークンに交換し、ユーザー情報を取得する。
func (p *DiscordOAuthProvider) Authenticate(ctx context.Context, code string) (*model.DiscordUser, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	// 1. 認可コードをアクセストークンに交換
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, NewExchangeError(retrieveErr)
		}
		return nil, model.NewProviderTransportError("discord", err)
	}

	// 2. アクセストークンでユーザー情報を取得
	user, err := p.fetchUser(ctx, token)
	if err != nil {
		return nil, err
	}

	return &model.DiscordUser{
		ID:            user.ID,
		Username:      user.Username,
		Discriminator: user.Discriminator,
		Avatar:        user.Avatar,
	}, nil
}

// NewExchangeError はトークンエンドポイントのエラー応答をAppErrorに変換する。
func NewExchangeError(err *oauth2.RetrieveError) *model.AppError {
	appErr := model.NewProviderExchangeError(string(err.Body))
	appErr.Err = err
	return appErr
}

// fetchUser はBearerトークンで /users/@me を取得する。
func (p *DiscordOAuthProvider) fetchUser(ctx context.Context, token *oauth2.Token) (*discordgo.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, model.NewProviderTransportError("discord", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewProviderTransportError("discord", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, model.NewProviderProfileFetchError(string(body))
	}

	var user discordgo.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, model.NewProviderTransportError("discord", fmt.Errorf("failed to parse user response: %w", err))
	}
	if user.ID == "" {
		return nil, model.NewProviderProfileFetchError("empty id in user response")
	}

	return &user, nil
}

// compile-time interface check
var _ DiscordAuthenticator = (*DiscordOAuthProvider)(nil)

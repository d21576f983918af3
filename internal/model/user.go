// Package model はドメインモデルを定義する。
package model

// DiscordUser はDiscord OAuth2で認証されたユーザーのセッション上の表現。
type DiscordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

// Tag は "username#discriminator" 形式の表示名を返す。
func (u *DiscordUser) Tag() string {
	return u.Username + "#" + u.Discriminator
}

// SteamUser はSteam OpenIDで認証されたユーザーのセッション上の表現。
// PersonaNameはAPIキー未設定またはプロフィール取得失敗時にnilとなる。
type SteamUser struct {
	SteamID     string  `json:"steamId"`
	PersonaName *string `json:"personaName"`
}

// SessionIdentity はブラウザセッションに保持される認証情報の断片。
// User と Steam の両方が揃った時点でリンクが永続化される。
type SessionIdentity struct {
	User  *DiscordUser
	Steam *SteamUser
}

// Complete は両方の断片が揃っているかを返す。
func (s SessionIdentity) Complete() bool {
	return s.User != nil && s.Steam != nil
}

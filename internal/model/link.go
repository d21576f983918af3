package model

// LinkRecord はDiscordアカウントとSteamアカウントの確定した紐付けを表す。
// 永続化ファイルのJSONフィールド名は既存のlinks.jsonと互換。
type LinkRecord struct {
	DiscordID       string `json:"discordId"`
	DiscordUsername string `json:"discordUsername"`
	SteamID         string `json:"steamId"`
}

// NewLinkRecord は揃ったセッション断片から紐付けレコードを組み立てる。
func NewLinkRecord(user *DiscordUser, steam *SteamUser) LinkRecord {
	return LinkRecord{
		DiscordID:       user.ID,
		DiscordUsername: user.Tag(),
		SteamID:         steam.SteamID,
	}
}

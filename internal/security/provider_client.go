package security

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// NewProviderClient はDiscord/Steamへの外向き通信に使うHTTPクライアントを生成する。
// safeurlのDialerがDNS解決後の接続先を検証し、443番ポート以外と
// プライベートIP、ループバック、リンクローカル、メタデータIPへの接続を拒否する。
// スキームはDialerでは検証されないため、接続先URLは各プロバイダーの固定値に限る。
// timeoutが0の場合はタイムアウトなし。
func NewProviderClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedPorts(443).
		Build()

	return safeurl.Client(config).Client
}

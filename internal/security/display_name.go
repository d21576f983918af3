// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import "strings"

// maxDisplayNameRunes は保存する表示名の最大文字数。
// Steamのペルソナ名の上限(32文字)より十分大きい。
const maxDisplayNameRunes = 64

// NormalizeDisplayName は外部IdPの表示名をセッション保存用に整える。
// 前後の空白を削り、長すぎる値を切り詰めるだけで、文字そのものは変更しない。
// 表示側はテキストとして描画するため、記号を含む名前もそのまま保持する。
func NormalizeDisplayName(name string) string {
	name = strings.TrimSpace(name)

	runes := []rune(name)
	if len(runes) > maxDisplayNameRunes {
		name = string(runes[:maxDisplayNameRunes])
	}
	return name
}

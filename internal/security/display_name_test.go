package security

import (
	"strings"
	"testing"
)

func TestNormalizeDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Gordon Freeman", "Gordon Freeman"},
		{"clan tag in brackets", "<Clan> Bob", "<Clan> Bob"},
		{"markup-like name kept", "a<b>c", "a<b>c"},
		{"script-like name kept", "x<script>y</script>", "x<script>y</script>"},
		{"ampersand kept", "Tom & Jerry", "Tom & Jerry"},
		{"surrounding spaces", "  spaced  ", "spaced"},
		{"empty", "", ""},
		{"unicode", "ゴードン", "ゴードン"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDisplayName(tt.input); got != tt.want {
				t.Errorf("NormalizeDisplayName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeDisplayName_TruncatesLongNames(t *testing.T) {
	long := strings.Repeat("あ", maxDisplayNameRunes+10)

	got := NormalizeDisplayName(long)
	if n := len([]rune(got)); n != maxDisplayNameRunes {
		t.Errorf("rune length = %d, want %d", n, maxDisplayNameRunes)
	}
}

package sanitize

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"
)

func TestClean_StripsLatinAndSpaces(t *testing.T) {
	require.Equal(t, "早安", Clean("Good morning 早安"))
	require.Equal(t, "祝福", Clean("祝 福"))
	require.Equal(t, "", Clean("abc XYZ"))
}

func TestClean_FoldsFullWidthPunctuation(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"早安，世界。", "早安,世界."},
		{"注意：以下；内容", "注意:以下;内容"},
		{"好吗？好！", "好吗?好!"},
		{"“引用”‘单引’", `"引用"'单引'`},
		{"（括号）【方括】", "(括号)[方括]"},
		{"破折—号", "破折-号"},
		{"省略…", "省略..."},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Clean(tc.in), "input=%q", tc.in)
	}
}

func TestClean_RemovesDisallowedRunes(t *testing.T) {
	require.Equal(t, "早安", Clean("早安🌞"))
	require.Equal(t, "价格100元", Clean("价格¥100元"))
	require.Equal(t, "第一行\n第二行", Clean("第一行\n第二行"))
}

func TestClean_PreservesCJKAndDigits(t *testing.T) {
	in := "今天2024年8月28日天气晴"
	out := Clean(in)
	require.Equal(t, in, out)
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"Good morning！早安，世界。2024",
		"（新闻）1.头条…\n2.要闻",
		"“你好” it's a test",
		"",
		"无数据",
	}
	for _, in := range inputs {
		once := Clean(in)
		require.Equal(t, once, Clean(once), "input=%q", in)
	}
}

func TestClean_OutputNeverContainsForbiddenRunes(t *testing.T) {
	out := Clean("Hello 早安，世界。：；？！“”‘’（）【】—…emoji🌙 end")
	require.NotContains(t, out, " ")
	for _, r := range out {
		require.False(t, unicode.IsLetter(r) && r < 128, "latin letter %q leaked", r)
	}
	for mapped := range map[string]struct{}{
		"，": {}, "。": {}, "：": {}, "；": {}, "？": {}, "！": {},
		"“": {}, "”": {}, "‘": {}, "’": {}, "（": {}, "）": {},
		"【": {}, "】": {}, "—": {}, "…": {},
	} {
		require.False(t, strings.Contains(out, mapped), "mapped rune %q leaked", mapped)
	}
}

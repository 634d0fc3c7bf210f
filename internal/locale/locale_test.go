package locale

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupKnownCodes(t *testing.T) {
	tests := []struct {
		code string
		name string
	}{
		{code: "en-US", name: "English"},
		{code: "es-ES", name: "Español"},
		{code: "fr-FR", name: "Français"},
		{code: "de-DE", name: "Deutsch"},
		{code: "ja-JP", name: "日本語"},
		{code: "rw-RW", name: "Kinyarwanda"},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			lang, err := Lookup(tc.code)
			require.NoError(t, err)
			require.Equal(t, tc.name, lang.Name)
			require.Equal(t, tc.code, lang.SpeechTag)
		})
	}
}

func TestLookupNormalizesCaseAndSeparator(t *testing.T) {
	lang, err := Lookup(" ja_jp ")
	require.NoError(t, err)
	require.Equal(t, Code("ja-JP"), lang.Code)
}

func TestLookupRejectsUnknownCode(t *testing.T) {
	_, err := Lookup("xx-XX")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported language")
	require.Contains(t, err.Error(), "en-US")

	_, err = Lookup("  ")
	require.Error(t, err)
}

func TestAllIsSortedAndComplete(t *testing.T) {
	all := All()
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].Code, all[i].Code)
	}
	require.Equal(t, "English", Default().Name)
}

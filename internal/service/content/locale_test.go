package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocales_Resolve(t *testing.T) {
	l := NewLocales("en", DefaultLocales)

	tests := []struct {
		raw  string
		want string
	}{
		{"", "en"},
		{"fr", "fr"},
		{"DE", "de"},
		{"fr-FR", "fr"},
		{"nl-BE,nl;q=0.9,en;q=0.8", "nl"},
		{"pt-BR", "en"},
		{"not a locale!", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, l.Resolve(tt.raw))
		})
	}
}

func TestLocales_BaseFirst(t *testing.T) {
	l := NewLocales("de", []string{"en", "de", "fr"})
	assert.Equal(t, []string{"de", "en", "fr"}, l.Supported())
	assert.True(t, l.IsBase("de"))
	assert.True(t, l.IsSupported("fr"))
	assert.False(t, l.IsSupported("es"))
}

func TestRenderContent(t *testing.T) {
	out, err := RenderContent("# Title\n\nline one\nline two", FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "line one<br")

	out, err = RenderContent(`<p class="note">ok</p><iframe src="x"></iframe>`, "")
	require.NoError(t, err)
	assert.Equal(t, `<p class="note">ok</p>`, out)

	_, err = RenderContent("x", "rtf")
	assert.Error(t, err)
}

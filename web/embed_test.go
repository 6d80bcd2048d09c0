package web

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Templates().ExecuteTemplate(&buf, IndexTemplate, NewPage("가을 퍼즐")))
	assert.Contains(t, buf.String(), "<title>가을 퍼즐</title>")
	assert.Contains(t, buf.String(), "/static/app.js")
}

func TestNewPageFallsBackToGenericTitle(t *testing.T) {
	assert.Equal(t, "Puzzle", NewPage("  ").Title)
	assert.Equal(t, "봄 이벤트", NewPage(" 봄 이벤트 ").Title)

	var buf bytes.Buffer
	require.NoError(t, Templates().ExecuteTemplate(&buf, IndexTemplate, NewPage("")))
	assert.Contains(t, buf.String(), "<title>Puzzle</title>")
}

func TestStaticFS(t *testing.T) {
	for _, name := range []string{"/app.js", "/style.css"} {
		f, err := StaticFS().Open(name)
		require.NoError(t, err, name)
		_ = f.Close()
	}
}

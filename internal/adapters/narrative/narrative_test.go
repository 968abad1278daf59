package narrative

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

func TestDefault_HasGlossaryAndViews(t *testing.T) {
	p, err := Default()
	require.NoError(t, err)

	g, err := p.Glossary(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(g), 9)

	n, err := p.Narrative(context.Background(), "1950s")
	require.NoError(t, err)
	assert.NotEmpty(t, n.Intro)
	assert.NotEmpty(t, n.Note("top-artists"))

	w, err := p.Narrative(context.Background(), "welcome")
	require.NoError(t, err)
	assert.Equal(t, "Welcome", w.Title)
	assert.NotEmpty(t, w.Intro)

	ov, err := p.Narrative(context.Background(), "overview")
	require.NoError(t, err)
	assert.Equal(t, "Overall Information", ov.Title)
}

func TestNarrative_UnknownViewIsEmpty(t *testing.T) {
	p, err := Default()
	require.NoError(t, err)

	n, err := p.Narrative(context.Background(), "2090s")
	require.NoError(t, err)
	assert.Equal(t, domain.Narrative{}, n)
	assert.Equal(t, "", n.Note("anything"))
}

func TestLoad_FileOverridesEmbedded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "n.yaml")
	doc := "views:\n  overview:\n    title: Custom\nglossary:\n  - term: Tempo\n    text: bpm\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p, err := Load(path)
	require.NoError(t, err)

	n, err := p.Narrative(context.Background(), "overview")
	require.NoError(t, err)
	assert.Equal(t, "Custom", n.Title)

	g, err := p.Glossary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Definition{{Term: "Tempo", Text: "bpm"}}, g)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("views: [unclosed"))
	require.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNarrative_CancelledContext(t *testing.T) {
	p, err := Default()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Narrative(ctx, "overview")
	assert.ErrorIs(t, err, context.Canceled)
}

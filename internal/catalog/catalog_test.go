package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sodematha/mathasvc/internal/domain"
)

const testCatalog = `
stotras:
  - id: b-song
    title: Beta Song
    titleKannada: ಬೀಟಾ
    author: Dasa
    category: song
    audioUrl: audio/b-song.mp3
  - id: a-stotra
    title: Alpha Stotra
    author: Vadirajaru
    category: stotra
    subcategory: Lakshmi Stotra
    audioUrl: bundled://a.mp3
  - id: z-featured
    title: Zeta
    author: Vadirajaru
    category: stotra
    featured: true
    audioUrl: audio/z.mp3
`

func titles(s []domain.Stotra) []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		out = append(out, v.Title)
	}
	return out
}

func TestCatalog_AllSortsFeaturedFirst(t *testing.T) {
	c, err := Parse(zerolog.Nop(), []byte(testCatalog))
	require.NoError(t, err)

	all, err := c.All(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "Alpha Stotra", "Beta Song"}, titles(all))

	songs, err := c.All(context.Background(), domain.CategorySong)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta Song"}, titles(songs))
}

func TestCatalog_Search(t *testing.T) {
	c, err := Parse(zerolog.Nop(), []byte(testCatalog))
	require.NoError(t, err)
	ctx := context.Background()

	res, err := c.Search(ctx, "vadiraj")
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "Alpha Stotra"}, titles(res))

	res, err = c.Search(ctx, "lakshmi")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha Stotra"}, titles(res))

	res, err = c.Search(ctx, "ಬೀಟಾ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta Song"}, titles(res))
}

func TestCatalog_Get(t *testing.T) {
	c, err := Parse(zerolog.Nop(), []byte(testCatalog))
	require.NoError(t, err)

	s, err := c.Get(context.Background(), "a-stotra")
	require.NoError(t, err)
	assert.True(t, s.AudioURL.IsBundled())

	_, err = c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestParse_RejectsBadIDs(t *testing.T) {
	_, err := Parse(zerolog.Nop(), []byte("stotras:\n  - id: ../x\n    title: x\n"))
	assert.Error(t, err)

	_, err = Parse(zerolog.Nop(), []byte("stotras:\n  - id: a\n  - id: a\n"))
	assert.Error(t, err)

	_, err = Parse(zerolog.Nop(), []byte("stotras:\n  - title: no id\n"))
	assert.Error(t, err)
}

func TestLoad_BuiltinAndFile(t *testing.T) {
	c, err := Load(zerolog.Nop(), "")
	require.NoError(t, err)
	all, err := c.All(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0644))
	c, err = Load(zerolog.Nop(), path)
	require.NoError(t, err)
	all, err = c.All(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = Load(zerolog.Nop(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

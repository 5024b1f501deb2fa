package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testData = `{
	"shows": [{"id": "s1", "slug": "dark", "title": "Dark"}],
	"episodes": [{"id": "e1", "showId": "s1"}, {"id": "e2", "showId": "s2"}],
	"movies": [{"id": "m1", "slug": "heat"}],
	"anime": [{"id": "a1", "slug": "frieren"}],
	"animeEpisodes": [{"id": "ae1", "animeId": "a1"}],
	"blogPosts": []
}`

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(testData), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	return c
}

func TestValidate(t *testing.T) {
	c := loadTestCatalog(t)

	tests := []struct {
		name string
		ref  domain.ContentRef
		err  error
	}{
		{"show by id", domain.ContentRef{Type: "show", ID: "s1"}, nil},
		{"show by slug with episode", domain.ContentRef{Type: "show", ID: "dark", EpisodeID: "e1"}, nil},
		{"episode of another show", domain.ContentRef{Type: "show", ID: "s1", EpisodeID: "e2"}, catalog.ErrEpisodeNotFound},
		{"unknown episode", domain.ContentRef{Type: "show", ID: "s1", EpisodeID: "nope"}, catalog.ErrEpisodeNotFound},
		{"movie ignores episode", domain.ContentRef{Type: "movie", ID: "heat", EpisodeID: "x"}, nil},
		{"anime episode", domain.ContentRef{Type: "anime", ID: "a1", EpisodeID: "ae1"}, nil},
		{"unknown title", domain.ContentRef{Type: "movie", ID: "m2"}, catalog.ErrContentNotFound},
		{"unknown type", domain.ContentRef{Type: "podcast", ID: "s1"}, catalog.ErrContentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Validate(tt.ref)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

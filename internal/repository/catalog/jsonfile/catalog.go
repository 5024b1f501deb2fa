package jsonfile

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/catalog"
)

type item struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

type episode struct {
	ID      string `json:"id"`
	ShowID  string `json:"showId"`
	AnimeID string `json:"animeId"`
}

type dataFile struct {
	Shows         []item    `json:"shows"`
	Episodes      []episode `json:"episodes"`
	Movies        []item    `json:"movies"`
	Anime         []item    `json:"anime"`
	AnimeEpisodes []episode `json:"animeEpisodes"`
}

type titles struct {
	// id or slug -> id
	ids map[string]string
	// episode id -> parent id
	episodes map[string]string
}

func newTitles(items []item, episodes []episode, parent func(episode) string) titles {
	t := titles{
		ids:      make(map[string]string, len(items)*2),
		episodes: make(map[string]string, len(episodes)),
	}

	for _, it := range items {
		t.ids[it.ID] = it.ID
		if it.Slug != "" {
			t.ids[it.Slug] = it.ID
		}
	}

	for _, ep := range episodes {
		t.episodes[ep.ID] = parent(ep)
	}

	return t
}

// Catalog is a read-only view over the flat JSON data store. Only the fields
// needed to check content references are loaded.
type Catalog struct {
	byType map[string]titles
}

func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	var data dataFile
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	return &Catalog{
		byType: map[string]titles{
			"show":  newTitles(data.Shows, data.Episodes, func(e episode) string { return e.ShowID }),
			"movie": newTitles(data.Movies, nil, nil),
			"anime": newTitles(data.Anime, data.AnimeEpisodes, func(e episode) string { return e.AnimeID }),
		},
	}, nil
}

// Validate checks that ref names a known title and, when an episode is given
// for a show or anime, that the episode belongs to it.
func (c *Catalog) Validate(ref domain.ContentRef) error {
	t, ok := c.byType[ref.Type]
	if !ok {
		return catalog.ErrContentNotFound
	}

	id, ok := t.ids[ref.ID]
	if !ok {
		return catalog.ErrContentNotFound
	}

	if ref.EpisodeID == "" || ref.Type == "movie" {
		return nil
	}

	if parent, ok := t.episodes[ref.EpisodeID]; !ok || parent != id {
		return catalog.ErrEpisodeNotFound
	}

	return nil
}

package catalog

import (
	"context"
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sodematha/mathasvc/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed stotras.yaml
var builtin []byte

type catalogFile struct {
	Stotras []domain.Stotra `yaml:"stotras"`
}

// Catalog is an in-memory, read-only stotra catalog.
type Catalog struct {
	log     zerolog.Logger
	stotras []domain.Stotra
	byID    map[string]int
}

var _ domain.Catalog = (*Catalog)(nil)

// Load reads the catalog at path, or the built-in catalog when path is empty.
func Load(log zerolog.Logger, path string) (*Catalog, error) {
	b := builtin
	if path != "" {
		var err error
		b, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read catalog %s", path)
		}
	}
	return Parse(log, b)
}

// Parse decodes a YAML catalog document.
func Parse(log zerolog.Logger, b []byte) (*Catalog, error) {
	f := catalogFile{}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal catalog yaml")
	}

	c := &Catalog{
		log:  log.With().Str("module", "catalog").Logger(),
		byID: make(map[string]int, len(f.Stotras)),
	}
	for _, s := range f.Stotras {
		if s.ID == "" {
			return nil, errors.Errorf("catalog entry %q has no id", s.Title)
		}
		if strings.ContainsAny(s.ID, `/\`) || s.ID == "." || s.ID == ".." {
			return nil, errors.Errorf("catalog id %q is not a valid file name", s.ID)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, errors.Errorf("duplicate catalog id %q", s.ID)
		}
		c.byID[s.ID] = len(c.stotras)
		c.stotras = append(c.stotras, s)
	}

	c.log.Debug().Int("count", len(c.stotras)).Msg("loaded catalog")
	return c, nil
}

// All returns the stotras of category (all when empty), featured first then
// alphabetically by title.
func (c *Catalog) All(_ context.Context, category domain.StotraCategory) ([]domain.Stotra, error) {
	out := make([]domain.Stotra, 0, len(c.stotras))
	for _, s := range c.stotras {
		if category == "" || s.Category == category {
			out = append(out, s)
		}
	}
	sortStotras(out)
	return out, nil
}

// Search matches the English title, author and subcategory case-insensitively
// and the Kannada and Sanskrit titles as given.
func (c *Catalog) Search(ctx context.Context, query string) ([]domain.Stotra, error) {
	all, err := c.All(ctx, "")
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)

	var out []domain.Stotra
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(s.TitleKannada, query) ||
			strings.Contains(s.TitleSanskrit, query) ||
			strings.Contains(strings.ToLower(s.Author), q) ||
			strings.Contains(strings.ToLower(s.Subcategory), q) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Get returns the stotra with id or domain.ErrItemNotFound.
func (c *Catalog) Get(_ context.Context, id string) (*domain.Stotra, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, errors.Wrapf(domain.ErrItemNotFound, "stotra %q", id)
	}
	s := c.stotras[i]
	return &s, nil
}

func sortStotras(s []domain.Stotra) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Featured != s[j].Featured {
			return s[i].Featured
		}
		return s[i].Title < s[j].Title
	})
}

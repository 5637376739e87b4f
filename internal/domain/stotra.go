package domain

import (
	"context"
	"path"
	"strings"
)

// BundledScheme marks audio shipped inside the application package.
const BundledScheme = "bundled://"

// AudioLocator is either a bundled marker (bundled://file.mp3) or an object
// store key such as audio/<id>.mp3.
type AudioLocator string

// IsBundled reports whether the locator points at bundled content.
func (l AudioLocator) IsBundled() bool {
	return strings.HasPrefix(string(l), BundledScheme)
}

// Ext returns the file extension of the locator without the dot, defaulting to mp3.
func (l AudioLocator) Ext() string {
	s := string(l)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	ext := strings.TrimPrefix(path.Ext(s), ".")
	if ext == "" {
		return "mp3"
	}
	return strings.ToLower(ext)
}

type StotraCategory string

const (
	CategoryStotra StotraCategory = "stotra"
	CategorySong   StotraCategory = "song"
)

// Verse is one numbered verse in the three display scripts.
type Verse struct {
	Number   int    `yaml:"number" json:"number"`
	Kannada  string `yaml:"kannada" json:"kannada"`
	English  string `yaml:"english" json:"english"`
	Sanskrit string `yaml:"sanskrit" json:"sanskrit"`
}

// Stotra is a devotional hymn and the downloadable item of the media cache.
type Stotra struct {
	ID            string         `yaml:"id" json:"id"`
	Title         string         `yaml:"title" json:"title"`
	TitleKannada  string         `yaml:"titleKannada" json:"titleKannada"`
	TitleSanskrit string         `yaml:"titleSanskrit" json:"titleSanskrit"`
	Author        string         `yaml:"author" json:"author"`
	Category      StotraCategory `yaml:"category" json:"category"`
	Subcategory   string         `yaml:"subcategory,omitempty" json:"subcategory,omitempty"`
	Duration      string         `yaml:"duration" json:"duration"`
	AudioURL      AudioLocator   `yaml:"audioUrl" json:"audioUrl"`
	Description   string         `yaml:"description,omitempty" json:"description,omitempty"`
	Benefits      string         `yaml:"benefits,omitempty" json:"benefits,omitempty"`
	Featured      bool           `yaml:"featured,omitempty" json:"featured,omitempty"`
	Verses        []Verse        `yaml:"verses,omitempty" json:"verses,omitempty"`
}

// Catalog is the read-only source of downloadable items.
type Catalog interface {
	All(ctx context.Context, category StotraCategory) ([]Stotra, error)
	Search(ctx context.Context, query string) ([]Stotra, error)
	Get(ctx context.Context, id string) (*Stotra, error)
}

package domain

import "path/filepath"

const (
	DatabaseFile  = "mathasvc.db"
	StotraDirName = "stotras"
)

// Paths holds the on-disk locations derived from the data directory
type Paths struct {
	DataDir  string
	DBDir    string
	CacheDir string
}

// NewPaths creates a new Paths instance. An empty cacheDir places the audio
// cache under the data directory.
func NewPaths(dataDir, cacheDir string) *Paths {
	if cacheDir == "" {
		cacheDir = filepath.Join(dataDir, StotraDirName)
	}
	return &Paths{
		DataDir:  dataDir,
		DBDir:    dataDir,
		CacheDir: cacheDir,
	}
}

// DBPath returns the database file path
func (p *Paths) DBPath() string {
	return filepath.Join(p.DBDir, DatabaseFile)
}

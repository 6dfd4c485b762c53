package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wakebell/wakebell/internal/domain"
)

// Loader handles loading and parsing of catalog.yaml
type Loader struct {
	filePath string
}

// NewLoader creates a new catalog loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the catalog file into content items.
// An item whose audio file is missing on disk is kept but marked
// unavailable, so a mount that comes back later only needs a reload.
func (l *Loader) Load() ([]*domain.ContentItem, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var config fileSchema
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	seen := make(map[int]struct{}, len(config.Items))
	items := make([]*domain.ContentItem, 0, len(config.Items))

	for i, entry := range config.Items {
		if entry.Number <= 0 {
			return nil, fmt.Errorf("catalog item %d: number must be positive, got %d", i, entry.Number)
		}
		if _, dup := seen[entry.Number]; dup {
			return nil, fmt.Errorf("catalog item %d: duplicate number %d", i, entry.Number)
		}
		if entry.File == "" {
			return nil, fmt.Errorf("catalog item %d: file is required", i)
		}
		seen[entry.Number] = struct{}{}

		locator := entry.File
		if !filepath.IsAbs(locator) && config.AudioDir != "" {
			locator = filepath.Join(config.AudioDir, locator)
		}

		title := entry.Title
		if title == "" {
			title = fmt.Sprintf("Track %d", entry.Number)
		}

		items = append(items, &domain.ContentItem{
			Number:          entry.Number,
			Title:           title,
			Locator:         locator,
			DurationSeconds: entry.DurationSeconds,
			Available:       fileExists(locator),
		})
	}

	return items, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

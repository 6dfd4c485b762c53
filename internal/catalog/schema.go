package catalog

// fileSchema represents the top-level structure of catalog.yaml
type fileSchema struct {
	// AudioDir is prepended to relative item files.
	AudioDir string `yaml:"audio_dir,omitempty"`

	Items []itemSchema `yaml:"items"`
}

// itemSchema contains one catalog entry as declared in YAML
type itemSchema struct {
	Number          int    `yaml:"number"`
	Title           string `yaml:"title"`
	File            string `yaml:"file"`
	DurationSeconds int    `yaml:"duration_seconds,omitempty"`
}

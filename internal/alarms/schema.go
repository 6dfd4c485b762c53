package alarms

// fileSchema represents the top-level structure of alarms.yaml
type fileSchema struct {
	Alarms []alarmSchema `yaml:"alarms"`
}

// alarmSchema contains one alarm as declared in YAML
type alarmSchema struct {
	ID      int64    `yaml:"id"`
	Time    string   `yaml:"time"` // "HH:MM", 24-hour
	Days    []string `yaml:"days,omitempty"`
	Enabled *bool    `yaml:"enabled,omitempty"` // default true
	Label   string   `yaml:"label,omitempty"`

	Snooze snoozeSchema `yaml:"snooze,omitempty"`

	Vibrate       bool     `yaml:"vibrate,omitempty"`
	Volume        *float64 `yaml:"volume,omitempty"` // default 1.0
	ContentNumber *int     `yaml:"content_number,omitempty"`
}

type snoozeSchema struct {
	Enabled *bool `yaml:"enabled,omitempty"` // default true
	Minutes int   `yaml:"minutes,omitempty"` // default 10
}

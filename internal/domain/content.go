package domain

// ContentItem is one playable audio passage from the catalog.
type ContentItem struct {
	// Number is the unique catalog number (1..N).
	Number int

	// Title shown to the user.
	Title string

	// Locator is the resolved audio source (file path).
	Locator string

	// DurationSeconds is the media length when known, 0 otherwise.
	DurationSeconds int

	// Available reports whether the audio source is currently playable.
	Available bool

	// LastUsed is the date (YYYY-MM-DD) the item was last played, "" if never.
	LastUsed string

	// UsageCount is the number of times the item has been played.
	UsageCount int
}

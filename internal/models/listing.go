package models

// Listing is the read-only view of an organic directory entry (a group or a
// bot) that the feed builder interleaves sponsored items into. The placement
// engine never mutates listings; moderation and content management are
// external collaborators.
type Listing struct {
	ID    int    `json:"id"`
	Kind  string `json:"kind"` // "group" or "bot"
	Title string `json:"title"`
	URL   string `json:"url"`
}

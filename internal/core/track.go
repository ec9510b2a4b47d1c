package core

import "sync/atomic"

// Track represents a playable audio track from a playlist.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	CoverURL   string `json:"cover_url,omitempty"`
	StreamHint string `json:"stream_hint,omitempty"`

	prewarmed atomic.Bool
}

// Playable reports whether the track carries an identifier that can be streamed.
func (t *Track) Playable() bool {
	return t != nil && t.ID != ""
}

// MarkPrewarmed flips the prewarmed flag. It returns true only for the
// first caller.
func (t *Track) MarkPrewarmed() bool {
	if t == nil {
		return false
	}
	return t.prewarmed.CompareAndSwap(false, true)
}

// Prewarmed reports whether a prewarm request was issued for the track.
func (t *Track) Prewarmed() bool {
	return t != nil && t.prewarmed.Load()
}

// Label returns "Title - Artist", or just the title when the artist is unknown.
func (t *Track) Label() string {
	if t == nil {
		return ""
	}
	if t.Artist == "" {
		return t.Title
	}
	return t.Title + " - " + t.Artist
}

// Playlist is a named, ordered list of tracks.
type Playlist struct {
	ID     string   `json:"id,omitempty"`
	Title  string   `json:"title"`
	Tracks []*Track `json:"tracks"`
}

// Len returns the number of tracks in the playlist.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Tracks)
}

// PlaylistSummary is a catalog entry for a playlist without its tracks.
type PlaylistSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

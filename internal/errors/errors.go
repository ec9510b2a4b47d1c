package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrResolutionFailure = errors.New("could not start track")
	ErrSessionHalted     = errors.New("playback stopped after repeated failures")
	ErrMidStreamFault    = errors.New("stream failed during playback")
	ErrSeekFailure       = errors.New("seek failed")
	ErrInvalidSelection  = errors.New("selected track missing a valid stream reference")
	ErrStreamUnavailable = errors.New("stream unavailable")
	ErrAudioUnavailable  = errors.New("audio output unavailable")
	ErrNoPlaylist        = errors.New("no playlist selected")
	ErrPlaylistNotFound  = errors.New("playlist not found")
	ErrNetworkError      = errors.New("network error")
	ErrTimeout           = errors.New("request timeout")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// Kind classifies a playback failure.
type Kind string

const (
	KindResolution Kind = "resolution"
	KindHalted     Kind = "halted"
	KindMidStream  Kind = "mid-stream"
	KindSeek       Kind = "seek"
	KindSelection  Kind = "selection"
)

// sentinel returns the sentinel error matching the kind.
func (k Kind) sentinel() error {
	switch k {
	case KindResolution:
		return ErrResolutionFailure
	case KindHalted:
		return ErrSessionHalted
	case KindMidStream:
		return ErrMidStreamFault
	case KindSeek:
		return ErrSeekFailure
	case KindSelection:
		return ErrInvalidSelection
	default:
		return nil
	}
}

// PlayerError is a playback failure of a given kind, optionally tied to a track.
type PlayerError struct {
	Kind    Kind
	TrackID string
	Err     error
}

// NewPlayerError wraps err as a failure of the given kind.
func NewPlayerError(kind Kind, trackID string, err error) *PlayerError {
	return &PlayerError{Kind: kind, TrackID: trackID, Err: err}
}

func (e *PlayerError) Error() string {
	s := e.Kind.sentinel()
	switch {
	case s == nil && e.Err == nil:
		return string(e.Kind)
	case s == nil:
		return e.Err.Error()
	case e.Err == nil:
		return s.Error()
	default:
		return fmt.Sprintf("%s: %s", s, e.Err)
	}
}

func (e *PlayerError) Unwrap() []error {
	var errs []error
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// StreamUnavailableError reports that no playable reference could be obtained
// for a track after all attempts.
type StreamUnavailableError struct {
	TrackID  string
	Attempts int
	Cause    error
}

func (e *StreamUnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("stream unavailable for %s after %d attempts", e.TrackID, e.Attempts)
	}
	return fmt.Sprintf("stream unavailable for %s after %d attempts: %s", e.TrackID, e.Attempts, e.Cause)
}

func (e *StreamUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrStreamUnavailable}
	}
	return []error{ErrStreamUnavailable, e.Cause}
}

// PlexError wraps an error with a user-friendly suggestion.
type PlexError struct {
	Err        error
	Suggestion string
}

func (e *PlexError) Error() string {
	return e.Err.Error()
}

func (e *PlexError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &PlexError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var plexErr *PlexError
	if errors.As(err, &plexErr) && plexErr.Suggestion != "" {
		return plexErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	// Session errors
	if errors.Is(err, ErrSessionHalted) {
		return "Check the server, then press space or pick a track to start again"
	}
	if errors.Is(err, ErrInvalidSelection) {
		return "The playlist entry has no playable id; pick another track"
	}
	if errors.Is(err, ErrAudioUnavailable) {
		return "Rebuild with CGO_ENABLED=1 to enable audio output on this platform"
	}
	if errors.Is(err, ErrNoPlaylist) {
		return "Pass a playlist id or run 'plexplay config set-playlist'"
	}

	// Ticket and catalog errors
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "forbidden") {
		return "The proxy rejected the request. Check that the Plex proxy is signed in"
	}
	if errors.Is(err, ErrPlaylistNotFound) || strings.Contains(errStr, "404") {
		return "Run 'plexplay playlists' to see available playlists"
	}

	// Network errors
	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrTimeout) ||
		strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check that the Plex proxy is reachable and try again"
	}

	// Config errors
	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) || strings.Contains(errStr, "config") {
		return "Run 'plexplay config init' to set up your configuration"
	}

	// Server errors
	if strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "server error") {
		return "The Plex server is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:\n", len(p.Errors))
	for i, err := range p.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

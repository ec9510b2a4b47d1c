package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPlayerErrorIs(t *testing.T) {
	cause := fmt.Errorf("ticket 503")
	err := NewPlayerError(KindResolution, "42", cause)

	if !errors.Is(err, ErrResolutionFailure) {
		t.Error("errors.Is(err, ErrResolutionFailure) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrSeekFailure) {
		t.Error("errors.Is(err, ErrSeekFailure) = true")
	}
	if want := "could not start track: ticket 503"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStreamUnavailableError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&StreamUnavailableError{TrackID: "7", Attempts: 2, Cause: cause})

	if !errors.Is(err, ErrStreamUnavailable) || !errors.Is(err, cause) {
		t.Error("StreamUnavailableError should match sentinel and cause")
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("Error() = %q, want attempt count", err.Error())
	}
}

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"halted", NewPlayerError(KindHalted, "", nil), "press space"},
		{"forbidden", errors.New("plex API error 403: forbidden"), "signed in"},
		{"not found", ErrPlaylistNotFound, "plexplay playlists"},
		{"network", errors.New("dial tcp: connection refused"), "reachable"},
		{"explicit", WithSuggestion(errors.New("x"), "do y"), "do y"},
		{"unknown", errors.New("something odd"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetSuggestion(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("GetSuggestion() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("GetSuggestion() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestPartialResult(t *testing.T) {
	var p PartialResult[[]string]
	p.AddError(nil)
	if p.HasErrors() {
		t.Fatal("nil error should not be recorded")
	}
	p.AddError(errors.New("a"))
	if got := p.ErrorSummary(); got != "a" {
		t.Errorf("ErrorSummary() = %q, want %q", got, "a")
	}
	p.AddError(errors.New("b"))
	if got := p.ErrorSummary(); !strings.HasPrefix(got, "2 errors occurred") {
		t.Errorf("ErrorSummary() = %q", got)
	}
}

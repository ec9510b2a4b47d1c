package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tessro/plexplay/internal/core"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template. An invalid template is
// reported by ParseTemplate; here it is ignored.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if t, err := ParseTemplate(tmpl); err == nil {
			f.template = t
		}
	}
}

// ParseTemplate compiles a line template. An empty string yields nil.
func ParseTemplate(tmpl string) (*template.Template, error) {
	if tmpl == "" {
		return nil, nil
	}
	return template.New("format").Parse(tmpl)
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{showEmoji: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

func (f *Formatter) formatLine(e Event) string {
	var parts []string
	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}
	parts = append(parts, describe(e))
	return strings.Join(parts, " ")
}

type templateData struct {
	Type       string
	Emoji      string
	Timestamp  time.Time
	Time       string
	Title      string
	Artist     string
	Album      string
	Position   int
	Shuffle    bool
	Status     string
	Downloaded string
}

func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
	}

	subject := e.Current
	if e.Type == EventTrackComplete || e.Type == EventTrackSkip {
		subject = e.Previous
	}
	if subject != nil {
		if t := subject.Track; t != nil {
			data.Title = t.Title
			data.Artist = t.Artist
			data.Album = t.Album
		}
		data.Position = subject.Cursor + 1
		data.Shuffle = subject.Shuffle
		data.Status = subject.Status.Message
		data.Downloaded = humanize.Bytes(subject.Downloaded)
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

func describe(e Event) string {
	switch e.Type {
	case EventTrackChange:
		if e.Current.HasTrack() {
			return fmt.Sprintf("Now playing: %s", trackLine(e.Current.Track))
		}
		return "Track changed"

	case EventTrackComplete:
		if e.Previous.HasTrack() {
			line := fmt.Sprintf("Finished: %s", trackLine(e.Previous.Track))
			if e.Previous.Downloaded > 0 {
				line += fmt.Sprintf(" (%s)", humanize.Bytes(e.Previous.Downloaded))
			}
			return line
		}
		return "Track completed"

	case EventTrackSkip:
		if e.Previous.HasTrack() {
			return fmt.Sprintf("Skipped: %s at %s", trackLine(e.Previous.Track), clock(e.Previous.Position))
		}
		return "Track skipped"

	case EventPause:
		return "Paused"

	case EventResume:
		return "Resumed"

	case EventShuffleChange:
		if e.Current != nil && e.Current.Shuffle {
			return "Shuffle on"
		}
		return "Shuffle off"

	case EventFailure, EventHalted:
		if e.Current != nil && e.Current.Status.Message != "" {
			return e.Current.Status.Message
		}
		if e.Type == EventHalted {
			return "Stopped"
		}
		return "Playback error"

	default:
		return "Unknown event"
	}
}

func trackLine(t *core.Track) string {
	if t.Artist == "" {
		return t.Title
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

func clock(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func eventEmoji(t EventType) string {
	switch t {
	case EventTrackChange:
		return "🎵"
	case EventTrackComplete:
		return "✅"
	case EventTrackSkip:
		return "⏭️"
	case EventPause:
		return "⏸️"
	case EventResume:
		return "▶️"
	case EventShuffleChange:
		return "🔀"
	case EventFailure:
		return "⚠️"
	case EventHalted:
		return "⏹️"
	default:
		return "❓"
	}
}

func eventTypeName(t EventType) string {
	switch t {
	case EventTrackChange:
		return "track_change"
	case EventTrackComplete:
		return "track_complete"
	case EventTrackSkip:
		return "track_skip"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventShuffleChange:
		return "shuffle_change"
	case EventFailure:
		return "failure"
	case EventHalted:
		return "halted"
	default:
		return "unknown"
	}
}

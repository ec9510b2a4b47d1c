//go:build (linux && cgo) || windows || darwin

package sink

import (
	"bytes"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

const speakerRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
	})
	return speakerErr
}

type beepOutput struct{}

func newOutput() (output, error) {
	return beepOutput{}, nil
}

func (beepOutput) load(data []byte, onEnd func()) (track, error) {
	streamer, format, err := mp3.Decode(readSeekNopCloser{bytes.NewReader(data)})
	if err != nil {
		return nil, err
	}
	if err := initSpeaker(); err != nil {
		_ = streamer.Close()
		return nil, err
	}

	t := &beepTrack{streamer: streamer, format: format}
	resampled := beep.Resample(4, format.SampleRate, speakerRate, streamer)
	t.ctrl = &beep.Ctrl{Streamer: resampled, Paused: true}

	speaker.Play(untilClosed{t: t, s: beep.Seq(t.ctrl, beep.Callback(func() {
		// Runs under the speaker lock.
		t.ended = true
		if !t.closed {
			go onEnd()
		}
	}))})
	return t, nil
}

// untilClosed drains once its track is closed, so the speaker mixer drops
// this track's streamer and leaves any others alone.
type untilClosed struct {
	t *beepTrack
	s beep.Streamer
}

func (u untilClosed) Stream(samples [][2]float64) (int, bool) {
	if u.t.closed {
		return 0, false
	}
	return u.s.Stream(samples)
}

func (u untilClosed) Err() error {
	return u.s.Err()
}

// beepTrack guards its fields with the speaker lock.
type beepTrack struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	closed   bool
	ended    bool
}

func (t *beepTrack) play() {
	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()
}

func (t *beepTrack) pause() {
	speaker.Lock()
	t.ctrl.Paused = true
	speaker.Unlock()
}

func (t *beepTrack) paused() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return t.ctrl.Paused || t.closed || t.ended
}

func (t *beepTrack) position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return t.format.SampleRate.D(t.streamer.Position())
}

func (t *beepTrack) duration() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return t.format.SampleRate.D(t.streamer.Len())
}

func (t *beepTrack) seek(pos time.Duration) error {
	speaker.Lock()
	defer speaker.Unlock()
	n := t.format.SampleRate.N(pos)
	if l := t.streamer.Len(); n >= l {
		n = l - 1
	}
	if n < 0 {
		n = 0
	}
	return t.streamer.Seek(n)
}

func (t *beepTrack) err() error {
	speaker.Lock()
	defer speaker.Unlock()
	return t.streamer.Err()
}

func (t *beepTrack) close() {
	speaker.Lock()
	if t.closed {
		speaker.Unlock()
		return
	}
	t.closed = true
	t.ctrl.Paused = true
	speaker.Unlock()

	_ = t.streamer.Close()
}

// readSeekNopCloser keeps the reader seekable so the decoder can seek.
type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

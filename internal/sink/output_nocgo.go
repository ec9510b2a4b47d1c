//go:build !((linux && cgo) || windows || darwin)

package sink

import perrors "github.com/tessro/plexplay/internal/errors"

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires cgo for native sound libraries on this platform.
const AudioAvailable = false

func newOutput() (output, error) {
	return nil, perrors.ErrAudioUnavailable
}

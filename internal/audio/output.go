package audio

import (
	"fmt"
	"strings"
)

// Backend names a host audio library.
type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendOto    Backend = "oto"
	BackendBeep   Backend = "beep"
)

// Backends lists every supported backend, default first.
var Backends = []Backend{BackendEbiten, BackendOto, BackendBeep}

func ParseBackend(name string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(name)))
	if b == "" {
		return BackendEbiten, nil
	}
	for _, known := range Backends {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("audio: unknown backend %q", name)
}

// Output is a playing stream on some host backend.
type Output interface {
	Play()
	Pause()
	IsPlaying() bool
	// Done reports whether the source has finished or failed.
	Done() bool
	// Err returns the source error that ended playback, if any.
	Err() error
	Stop() error
}

// Open starts a paused stream of source on backend. The ebiten and oto
// backends share one device context per process, and beep drives the
// process-wide speaker, so only one backend should be used per process.
func Open(backend Backend, sampleRate int, source SampleSource, tap Tap) (Output, error) {
	switch backend {
	case BackendEbiten, "":
		return NewEbitenOutput(sampleRate, source, tap)
	case BackendOto:
		return NewOtoOutput(sampleRate, source, tap)
	case BackendBeep:
		return NewBeepOutput(sampleRate, source, tap)
	}
	return nil, fmt.Errorf("audio: unknown backend %q", backend)
}

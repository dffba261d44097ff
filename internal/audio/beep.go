package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// BeepStreamer adapts a SampleSource to beep's float streamer interface.
type BeepStreamer struct {
	puller
	stopped bool
}

func NewBeepStreamer(source SampleSource, tap Tap) *BeepStreamer {
	return &BeepStreamer{puller: puller{source: source, tap: tap}}
}

// Stop ends this stream only. The next Stream call reports false, which
// makes the speaker's mixer drop it.
func (s *BeepStreamer) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// Stream fills samples with the next frames. It reports false once the
// source has finished or failed, after the final buffer was delivered.
func (s *BeepStreamer) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done || s.stopped {
		return 0, false
	}
	pcm, err := s.pull(len(samples))
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, false
	}
	for i := range samples {
		samples[i][0] = float64(pcm[i*2]) / 32767
		samples[i][1] = float64(pcm[i*2+1]) / 32767
	}
	return len(samples), true
}

// BeepOutput plays a source on beep's process-wide speaker.
type BeepOutput struct {
	ctrl   *beep.Ctrl
	stream *BeepStreamer
}

var (
	speakerOnce       sync.Once
	speakerErr        error
	speakerSampleRate int
)

func initSpeaker(sampleRate int) error {
	speakerOnce.Do(func() {
		speakerSampleRate = sampleRate
		sr := beep.SampleRate(sampleRate)
		speakerErr = speaker.Init(sr, sr.N(100*time.Millisecond))
	})
	if speakerErr != nil {
		return speakerErr
	}
	if speakerSampleRate != sampleRate {
		return fmt.Errorf("speaker already initialized at %d Hz (requested %d Hz)", speakerSampleRate, sampleRate)
	}
	return nil
}

func NewBeepOutput(sampleRate int, source SampleSource, tap Tap) (*BeepOutput, error) {
	if err := initSpeaker(sampleRate); err != nil {
		return nil, err
	}
	stream := NewBeepStreamer(source, tap)
	ctrl := &beep.Ctrl{Streamer: stream, Paused: true}
	speaker.Play(ctrl)
	return &BeepOutput{ctrl: ctrl, stream: stream}, nil
}

func (p *BeepOutput) Play() {
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
}

func (p *BeepOutput) Pause() {
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
}

func (p *BeepOutput) IsPlaying() bool {
	speaker.Lock()
	paused := p.ctrl.Paused
	speaker.Unlock()
	return !paused && !p.stream.Done()
}

func (p *BeepOutput) Done() bool { return p.stream.Done() }
func (p *BeepOutput) Err() error { return p.stream.Err() }

// Stop removes this output from the shared speaker. Other streams on the
// speaker keep playing.
func (p *BeepOutput) Stop() error {
	p.stream.Stop()
	speaker.Lock()
	p.ctrl.Streamer = nil
	p.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

package audio

import (
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// EbitenOutput plays a source through ebiten's audio context.
type EbitenOutput struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func NewEbitenOutput(sampleRate int, source SampleSource, tap Tap) (*EbitenOutput, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, tap)
	pl, err := ctx.NewPlayer(reader)
	if err != nil {
		return nil, err
	}
	return &EbitenOutput{
		player: pl,
		reader: reader,
	}, nil
}

func (p *EbitenOutput) Play()  { p.player.Play() }
func (p *EbitenOutput) Pause() { p.player.Pause() }
func (p *EbitenOutput) IsPlaying() bool {
	return p.player.IsPlaying()
}

func (p *EbitenOutput) Done() bool { return p.reader.Done() }
func (p *EbitenOutput) Err() error { return p.reader.Err() }

// Position returns the current playback position (what the listener actually hears).
func (p *EbitenOutput) Position() time.Duration {
	return p.player.Position()
}

func (p *EbitenOutput) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}

package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// OtoOutput plays a source directly on an oto device context.
type OtoOutput struct {
	player *oto.Player
	reader *StreamReader
}

var (
	otoOnce       sync.Once
	otoContext    *oto.Context
	otoErr        error
	otoSampleRate int
)

func sharedOtoContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		otoSampleRate = sampleRate
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoSampleRate != sampleRate {
		return nil, fmt.Errorf("oto context already initialized at %d Hz (requested %d Hz)", otoSampleRate, sampleRate)
	}
	return otoContext, nil
}

func NewOtoOutput(sampleRate int, source SampleSource, tap Tap) (*OtoOutput, error) {
	ctx, err := sharedOtoContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, tap)
	return &OtoOutput{
		player: ctx.NewPlayer(reader),
		reader: reader,
	}, nil
}

func (p *OtoOutput) Play()           { p.player.Play() }
func (p *OtoOutput) Pause()          { p.player.Pause() }
func (p *OtoOutput) IsPlaying() bool { return p.player.IsPlaying() }
func (p *OtoOutput) Done() bool      { return p.reader.Done() }
func (p *OtoOutput) Err() error      { return p.reader.Err() }

func (p *OtoOutput) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}

package impsynth

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	intaudio "github.com/cbegin/impsynth-go/internal/audio"
	"github.com/cbegin/impsynth-go/internal/effects"
	intseq "github.com/cbegin/impsynth-go/internal/sequencer"
)

const renderChunkFrames = 1024

// RenderSamples renders up to seconds of cfg's song as interleaved stereo.
// Rendering stops early, on a chunk boundary, once the tempo ramp has
// stopped time.
func RenderSamples(cfg Config, seconds float64) ([]int16, error) {
	song, err := cfg.NewSong(nil)
	if err != nil {
		return nil, err
	}
	out, err := RenderSong(song, int(float64(cfg.SampleRate)*seconds))
	cfg.newBus().ApplyInt16(out)
	return out, err
}

// busSource runs a song through the master effects bus.
type busSource struct {
	*intseq.Song
	bus *effects.Chain
}

func (b busSource) Process(dst []int16) error {
	if err := b.Song.Process(dst); err != nil {
		return err
	}
	b.bus.ApplyInt16(dst)
	return nil
}

// RenderSong renders at most frames frames of song.
func RenderSong(song *intseq.Song, frames int) ([]int16, error) {
	out := make([]int16, 0, frames*2)
	for done := 0; done < frames && !song.Finished(); {
		n := min(renderChunkFrames, frames-done)
		chunk := out[len(out) : len(out)+n*2]
		if err := song.Process(chunk); err != nil {
			return out, err
		}
		out = out[:len(out)+n*2]
		done += n
	}
	return out, nil
}

// EncodeWAV writes interleaved 16-bit PCM to w as a WAV file.
func EncodeWAV(w io.WriteSeeker, samples []int16, sampleRate, channels int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// WriteWAV saves stereo samples to path.
func WriteWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, samples, sampleRate, 2); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WritePCM streams cfg's song to w as raw signed 16-bit little-endian
// stereo. It stops after seconds, or when time stops if seconds <= 0.
func WritePCM(w io.Writer, cfg Config, seconds float64) (int64, error) {
	song, err := cfg.NewSong(nil)
	if err != nil {
		return 0, err
	}
	var r io.Reader = intaudio.NewStreamReader(busSource{song, cfg.newBus()}, nil)
	if seconds > 0 {
		r = io.LimitReader(r, int64(float64(cfg.SampleRate)*seconds)*4)
	}
	return io.Copy(w, r)
}

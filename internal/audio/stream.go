package audio

import (
	"encoding/binary"
	"io"
	"sync"
)

// SampleSource renders interleaved 16-bit stereo frames. A non-nil error
// ends the stream.
type SampleSource interface {
	Process(dst []int16) error
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// Tap receives every rendered buffer on the audio goroutine. It must copy
// what it needs and return quickly.
type Tap func(frames []int16)

// puller is the part shared by every backend adapter: it renders into a
// reusable buffer under a lock and remembers how the stream ended.
type puller struct {
	mu     sync.Mutex
	source SampleSource
	tap    Tap
	buf    []int16
	done   bool
	err    error
}

// pull renders frames stereo frames. The returned slice is only valid
// until the next call. Callers hold p.mu.
func (p *puller) pull(frames int) ([]int16, error) {
	need := frames * 2
	if cap(p.buf) < need {
		p.buf = make([]int16, need)
	}
	p.buf = p.buf[:need]
	if p.done {
		clear(p.buf)
		if p.err != nil {
			return p.buf, p.err
		}
		return p.buf, io.EOF
	}
	if err := p.source.Process(p.buf); err != nil {
		p.done, p.err = true, err
		return p.buf, err
	}
	if p.tap != nil {
		p.tap(p.buf)
	}
	if fs, ok := p.source.(FinishingSource); ok && fs.Finished() {
		p.done = true
		return p.buf, io.EOF
	}
	return p.buf, nil
}

// Done reports whether the source has finished or failed.
func (p *puller) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Err returns the error that ended the stream, if any. A source that
// finished normally has no error.
func (p *puller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// StreamReader exposes a SampleSource as a byte stream of signed 16-bit
// little-endian stereo PCM, the format ebiten and oto consume.
type StreamReader struct {
	puller
}

func NewStreamReader(source SampleSource, tap Tap) *StreamReader {
	return &StreamReader{puller{source: source, tap: tap}}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	samples, err := r.pull(frames)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
	}
	return frames * 4, err
}

func (r *StreamReader) Close() error { return nil }

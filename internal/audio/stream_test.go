package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

type rampSource struct {
	next     int16
	calls    int
	finishAt int
	failAt   int
}

var errBoom = errors.New("boom")

func (s *rampSource) Process(dst []int16) error {
	s.calls++
	if s.failAt > 0 && s.calls >= s.failAt {
		return errBoom
	}
	for i := 0; i < len(dst); i += 2 {
		dst[i] = s.next
		dst[i+1] = -s.next
		s.next++
	}
	return nil
}

func (s *rampSource) Finished() bool {
	return s.finishAt > 0 && s.calls >= s.finishAt
}

func TestStreamReaderEncodesInt16LE(t *testing.T) {
	r := NewStreamReader(&rampSource{next: 1000}, nil)
	p := make([]byte, 4*3+2)
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 12 {
		t.Fatalf("read %d bytes, want whole frames only (12)", n)
	}
	for f := 0; f < 3; f++ {
		l := int16(binary.LittleEndian.Uint16(p[f*4:]))
		rr := int16(binary.LittleEndian.Uint16(p[f*4+2:]))
		if l != int16(1000+f) || rr != -l {
			t.Fatalf("frame %d = (%d, %d)", f, l, rr)
		}
	}
	if n, _ := r.Read(p[:3]); n != 0 {
		t.Fatalf("short buffer read %d bytes", n)
	}
}

func TestStreamReaderEndsWithEOF(t *testing.T) {
	r := NewStreamReader(&rampSource{finishAt: 2}, nil)
	p := make([]byte, 64)
	if _, err := r.Read(p); err != nil {
		t.Fatal(err)
	}
	if n, err := r.Read(p); err != io.EOF || n != 64 {
		t.Fatalf("final read = %d, %v; want 64, EOF", n, err)
	}
	if !r.Done() || r.Err() != nil {
		t.Fatalf("done=%v err=%v", r.Done(), r.Err())
	}
	p[0] = 1
	if _, err := r.Read(p); err != io.EOF || p[0] != 0 {
		t.Fatalf("read after end: err=%v first byte=%d", err, p[0])
	}
}

func TestStreamReaderReportsSourceError(t *testing.T) {
	r := NewStreamReader(&rampSource{failAt: 1}, nil)
	if _, err := r.Read(make([]byte, 16)); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want source error", err)
	}
	if !errors.Is(r.Err(), errBoom) || !r.Done() {
		t.Fatalf("error not latched: %v", r.Err())
	}
}

func TestTapSeesRenderedFrames(t *testing.T) {
	var seen []int16
	r := NewStreamReader(&rampSource{next: 5}, func(frames []int16) {
		seen = append(seen, frames...)
	})
	r.Read(make([]byte, 8))
	if len(seen) != 4 || seen[0] != 5 || seen[2] != 6 {
		t.Fatalf("tap saw %v", seen)
	}
}

func TestBeepStreamerScalesToUnitRange(t *testing.T) {
	s := NewBeepStreamer(&rampSource{next: 32767, finishAt: 2}, nil)
	samples := make([][2]float64, 1)
	n, ok := s.Stream(samples)
	if n != 1 || !ok {
		t.Fatalf("Stream = %d, %v", n, ok)
	}
	if samples[0][0] != 1 || samples[0][1] != -1 {
		t.Fatalf("sample = %v, want [1 -1]", samples[0])
	}
	if n, ok := s.Stream(samples); n != 1 || !ok {
		t.Fatalf("final buffer should still play: %d, %v", n, ok)
	}
	if n, ok := s.Stream(samples); n != 0 || ok {
		t.Fatalf("after finish: %d, %v", n, ok)
	}
	if s.Err() != nil {
		t.Fatalf("finished stream reported %v", s.Err())
	}
}

func TestBeepStreamerStopsOnError(t *testing.T) {
	s := NewBeepStreamer(&rampSource{failAt: 1}, nil)
	if n, ok := s.Stream(make([][2]float64, 4)); n != 0 || ok {
		t.Fatalf("Stream = %d, %v after source error", n, ok)
	}
	if !errors.Is(s.Err(), errBoom) {
		t.Fatalf("Err() = %v", s.Err())
	}
}

func TestBeepStreamerStopIsPerStream(t *testing.T) {
	old := NewBeepStreamer(&rampSource{}, nil)
	fresh := NewBeepStreamer(&rampSource{next: 5}, nil)
	buf := make([][2]float64, 16)
	if _, ok := old.Stream(buf); !ok {
		t.Fatal("old stream ended before Stop")
	}

	old.Stop()
	if n, ok := old.Stream(buf); ok || n != 0 {
		t.Fatalf("stopped stream: n=%d ok=%v, want 0 false", n, ok)
	}
	n, ok := fresh.Stream(buf)
	if !ok || n != len(buf) {
		t.Fatalf("fresh stream: n=%d ok=%v, want %d true", n, ok, len(buf))
	}
	if buf[0][0] != 5.0/32767 {
		t.Fatalf("fresh stream sample = %v", buf[0][0])
	}
}

func TestParseBackend(t *testing.T) {
	cases := map[string]Backend{"": BackendEbiten, "OTO": BackendOto, " beep ": BackendBeep, "ebiten": BackendEbiten}
	for in, want := range cases {
		got, err := ParseBackend(in)
		if err != nil || got != want {
			t.Errorf("ParseBackend(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseBackend("alsa"); err == nil {
		t.Fatal("unknown backend should fail")
	}
}

package sequencer

import "testing"

func BenchmarkSongProcess(b *testing.B) {
	s := newTestSong(b, 44100, 9, Options{BPM: 130})
	sc, _ := NamedScale("pentatonic", 9)
	for i := 0; i < 4; i++ {
		if err := s.Activate(i, i, sc); err != nil {
			b.Fatal(err)
		}
	}
	buf := make([]int16, 2048*2)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Process(buf); err != nil {
			b.Fatal(err)
		}
	}
}

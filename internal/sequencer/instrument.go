package sequencer

import "github.com/cbegin/impsynth-go/internal/queue"

// Instrument is one slot of the song's instrument pool: a voice source
// (a synth from the pool), the scale its phrases are drawn from and the
// event queue feeding it.
type Instrument struct {
	active    bool
	synth     int
	scale     Scale
	queue     queue.Queue
	countdown float64
	// lastFreq is the last note that actually sounded; held is that note
	// while it has not been released, 0 otherwise.
	lastFreq float64
	held     float64
}

func (in *Instrument) Active() bool        { return in.active }
func (in *Instrument) SynthIndex() int     { return in.synth }
func (in *Instrument) Scale() Scale        { return in.scale }
func (in *Instrument) Countdown() float64  { return in.countdown }
func (in *Instrument) Pending() int        { return in.queue.Len() }
func (in *Instrument) LastFreq() float64   { return in.lastFreq }
func (in *Instrument) Held() float64       { return in.held }
func (in *Instrument) Queue() *queue.Queue { return &in.queue }

func (in *Instrument) reset() {
	in.queue.Reset()
	in.countdown = 0
	in.lastFreq = 0
	in.held = 0
}

package sequencer

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/cbegin/impsynth-go/internal/queue"
)

func drainQueue(t *testing.T, q *queue.Queue) []byte {
	t.Helper()
	var out []byte
	for q.State() != queue.Empty {
		b, err := q.Read()
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, b)
	}
	return out
}

func TestWorstCaseBatch(t *testing.T) {
	cases := map[int]int{0: 6, 1: 24, 2: 96, 3: 384}
	for exp, want := range cases {
		if got := WorstCaseBatch(exp); got != want {
			t.Errorf("WorstCaseBatch(%d) = %d, want %d", exp, got, want)
		}
	}
}

func TestNewGeneratorRejectsOversizeBatches(t *testing.T) {
	_, err := NewGenerator(3)
	if !errors.Is(err, ErrBatchOverflow) || !errors.Is(err, queue.ErrQueueFull) {
		t.Fatalf("NewGenerator(3) err = %v, want batch overflow", err)
	}
	if _, err := NewGenerator(-1); err == nil {
		t.Fatal("negative exponent should fail")
	}
	for exp := 0; exp <= DefaultMaxSubdivExp; exp++ {
		if _, err := NewGenerator(exp); err != nil {
			t.Fatalf("NewGenerator(%d): %v", exp, err)
		}
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	sc, _ := NamedScale("pentatonic", 9)
	render := func(seed uint64) []byte {
		g, err := NewGenerator(DefaultMaxSubdivExp)
		if err != nil {
			t.Fatal(err)
		}
		rng := rand.New(rand.NewPCG(seed, seed))
		var all []byte
		var q queue.Queue
		for i := 0; i < 20; i++ {
			if err := g.Fill(&q, sc, rng); err != nil {
				t.Fatal(err)
			}
			all = append(all, drainQueue(t, &q)...)
		}
		return all
	}
	a, b := render(7), render(7)
	if !bytes.Equal(a, b) {
		t.Fatal("same seed produced different batches")
	}
	if bytes.Equal(a, render(8)) {
		t.Fatal("different seeds produced identical batches")
	}
}

func TestGeneratedBatchesAreWellFormed(t *testing.T) {
	sc, _ := NamedScale("pentatonic", 9)
	g, _ := NewGenerator(DefaultMaxSubdivExp)
	rng := rand.New(rand.NewPCG(3, 4))
	var q queue.Queue
	for batch := 0; batch < 500; batch++ {
		if err := g.Fill(&q, sc, rng); err != nil {
			t.Fatal(err)
		}
		data := drainQueue(t, &q)
		if len(data) == 0 || len(data) > WorstCaseBatch(DefaultMaxSubdivExp) {
			t.Fatalf("batch %d: %d bytes", batch, len(data))
		}
		prevSounded := false
		for i := 0; i < len(data); {
			op := Op(data[i])
			n := op.Len()
			if n == 0 || i+n > len(data) {
				t.Fatalf("batch %d: bad token at %d: % x", batch, i, data)
			}
			args := data[i+1 : i+n]
			switch op {
			case OpStrike, OpSlide:
				if op == OpSlide && !prevSounded {
					t.Fatalf("batch %d: slide without a preceding note", batch)
				}
				if !inScale(sc, int(args[0])) || args[0] >= NumNotes {
					t.Fatalf("batch %d: note %d outside pentatonic A", batch, args[0])
				}
				if _, err := Duration(args[1], args[2], 120); err != nil {
					t.Fatalf("batch %d: %v", batch, err)
				}
				if i+n+1 >= len(data) || Op(data[i+n]) != OpRelease || data[i+n+1] != args[0] {
					t.Fatalf("batch %d: note %d not followed by its release", batch, args[0])
				}
			case OpRelease:
				prevSounded = true
			case OpWait:
				if _, err := Duration(args[0], args[1], 120); err != nil {
					t.Fatalf("batch %d: %v", batch, err)
				}
				prevSounded = false
			}
			i += n
		}
	}
}

func TestFillIsAllOrNothing(t *testing.T) {
	sc, _ := NamedScale("major", 0)
	g, _ := NewGenerator(DefaultMaxSubdivExp)
	rng := rand.New(rand.NewPCG(1, 2))
	var q queue.Queue
	if err := q.Write(make([]byte, queue.Capacity-1)...); err != nil {
		t.Fatal(err)
	}
	err := g.Fill(&q, sc, rng)
	if !errors.Is(err, ErrBatchOverflow) || !errors.Is(err, queue.ErrQueueFull) {
		t.Fatalf("fill into nearly full queue: err=%v", err)
	}
	if q.Len() != queue.Capacity-1 {
		t.Fatalf("failed fill changed queue length to %d", q.Len())
	}
}

package queue

import (
	"errors"
	"testing"
)

func TestNewQueueIsEmpty(t *testing.T) {
	var q Queue
	if q.State() != Empty || q.Len() != 0 || q.Free() != Capacity {
		t.Fatalf("zero queue: state=%v len=%d free=%d", q.State(), q.Len(), q.Free())
	}
	if _, err := q.Read(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("read from empty queue: err=%v", err)
	}
}

func TestWriteReadPreservesOrder(t *testing.T) {
	var q Queue
	if err := q.Write(1, 2, 3); err != nil {
		t.Fatal(err)
	}
	if q.State() != Normal || q.Len() != 3 {
		t.Fatalf("after write: state=%v len=%d", q.State(), q.Len())
	}
	for want := byte(1); want <= 3; want++ {
		got, err := q.Read()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("read %d, want %d", got, want)
		}
	}
	if q.State() != Empty {
		t.Fatalf("state after draining = %v", q.State())
	}
}

func TestFillToCapacity(t *testing.T) {
	var q Queue
	data := make([]byte, Capacity)
	for i := range data {
		data[i] = byte(i)
	}
	if err := q.Write(data...); err != nil {
		t.Fatal(err)
	}
	if q.State() != Full || q.Len() != Capacity || q.Free() != 0 {
		t.Fatalf("full queue: state=%v len=%d free=%d", q.State(), q.Len(), q.Free())
	}
	if err := q.Write(0); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("write to full queue: err=%v", err)
	}
}

func TestWriteIsAllOrNothing(t *testing.T) {
	var q Queue
	if err := q.Write(make([]byte, Capacity-2)...); err != nil {
		t.Fatal(err)
	}
	if err := q.Write(7, 8, 9); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("oversize write: err=%v", err)
	}
	if q.Len() != Capacity-2 || q.State() != Normal {
		t.Fatalf("failed write mutated queue: len=%d state=%v", q.Len(), q.State())
	}
	if err := q.Write(7, 8); err != nil {
		t.Fatalf("exact fit write: %v", err)
	}
	if q.State() != Full {
		t.Fatalf("state = %v, want full", q.State())
	}
}

func TestWrapAround(t *testing.T) {
	var q Queue
	next := byte(0)
	expect := byte(0)
	for round := 0; round < 10; round++ {
		batch := make([]byte, 50)
		for i := range batch {
			batch[i] = next
			next++
		}
		if err := q.Write(batch...); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		for i := 0; i < 50; i++ {
			got, err := q.Read()
			if err != nil {
				t.Fatalf("round %d: %v", round, err)
			}
			if got != expect {
				t.Fatalf("round %d: read %d, want %d", round, got, expect)
			}
			expect++
		}
	}
}

func TestLenAcrossWrap(t *testing.T) {
	var q Queue
	q.Write(make([]byte, 100)...)
	for i := 0; i < 90; i++ {
		q.Read()
	}
	q.Write(make([]byte, 60)...)
	if q.Len() != 70 || q.Free() != Capacity-70 {
		t.Fatalf("len=%d free=%d, want 70/%d", q.Len(), q.Free(), Capacity-70)
	}
}

func TestReset(t *testing.T) {
	var q Queue
	q.Write(1, 2, 3)
	q.Reset()
	if q.State() != Empty || q.Len() != 0 {
		t.Fatalf("after reset: state=%v len=%d", q.State(), q.Len())
	}
}

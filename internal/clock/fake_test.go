package clock

import (
	"testing"
	"time"
)

func TestRecorder_AfterFiresAndAdvances(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	r := NewRecorder(start)

	select {
	case got := <-r.After(time.Second):
		if !got.Equal(start.Add(time.Second)) {
			t.Errorf("fired at %v, want %v", got, start.Add(time.Second))
		}
	default:
		t.Fatal("After channel must be ready immediately")
	}

	<-r.After(2 * time.Second)
	if r.Elapsed() != 3*time.Second {
		t.Errorf("Elapsed: got %v want 3s", r.Elapsed())
	}
	if !r.Now().Equal(start.Add(3 * time.Second)) {
		t.Errorf("Now: got %v want %v", r.Now(), start.Add(3*time.Second))
	}
	if w := r.Waits(); len(w) != 2 || w[0] != time.Second || w[1] != 2*time.Second {
		t.Errorf("Waits: got %v", w)
	}
}

func TestRecorder_NonPositiveDurationDoesNotAdvance(t *testing.T) {
	start := time.Unix(0, 0)
	r := NewRecorder(start)
	<-r.After(0)
	<-r.After(-time.Second)
	if !r.Now().Equal(start) {
		t.Errorf("Now moved to %v", r.Now())
	}
}

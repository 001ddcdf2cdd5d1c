package gesture

import (
	"testing"
	"time"

	"github.com/ayusman/gestureos/internal/detector"
)

func TestWindow_Push(t *testing.T) {
	palm := detector.OpenPalmLandmarks()

	t.Run("evicts oldest beyond capacity", func(t *testing.T) {
		w := NewWindow(10, time.Minute)
		for i := 0; i < 12; i++ {
			w.Push(sampleOf(t, palm, at(i*10)))
		}

		if w.Len() != 10 {
			t.Fatalf("expected 10 samples, got %d", w.Len())
		}
		oldest, _ := w.Oldest()
		if !oldest.Time.Equal(at(20)) {
			t.Errorf("expected oldest at 20ms, got %v", oldest.Time.Sub(epoch))
		}
		newest, _ := w.Newest()
		if !newest.Time.Equal(at(110)) {
			t.Errorf("expected newest at 110ms, got %v", newest.Time.Sub(epoch))
		}
	})

	t.Run("expires samples older than max age", func(t *testing.T) {
		w := NewWindow(10, time.Second)
		w.Push(sampleOf(t, palm, at(0)))
		w.Push(sampleOf(t, palm, at(100)))
		w.Push(sampleOf(t, palm, at(1050)))

		if w.Len() != 2 {
			t.Fatalf("expected 2 samples, got %d", w.Len())
		}
		if w.Span() != 950*time.Millisecond {
			t.Errorf("expected span 950ms, got %v", w.Span())
		}
	})

	t.Run("newest sample never expires", func(t *testing.T) {
		w := NewWindow(4, time.Millisecond)
		w.Push(sampleOf(t, palm, at(0)))
		w.Push(sampleOf(t, palm, at(500)))

		if w.Len() != 1 {
			t.Errorf("expected only the newest sample, got %d", w.Len())
		}
	})
}

func TestWindow_MarkGap(t *testing.T) {
	palm := detector.OpenPalmLandmarks()
	w := NewWindow(5, time.Second)
	w.Push(sampleOf(t, palm, at(0)))
	w.Push(sampleOf(t, palm, at(10)))

	w.MarkGap(at(20))

	if w.Len() != 0 {
		t.Errorf("expected empty window after gap, got %d", w.Len())
	}
	if w.Gaps() != 1 {
		t.Errorf("expected 1 gap, got %d", w.Gaps())
	}
	if _, ok := w.Newest(); ok {
		t.Error("expected no newest sample")
	}
}

func TestWindow_KeepNewest(t *testing.T) {
	palm := detector.OpenPalmLandmarks()
	w := NewWindow(3, time.Second)
	for i := 0; i < 5; i++ {
		w.Push(sampleOf(t, palm, at(i*10)))
	}

	w.KeepNewest()

	if w.Len() != 1 {
		t.Fatalf("expected 1 sample, got %d", w.Len())
	}
	s, _ := w.Oldest()
	if !s.Time.Equal(at(40)) {
		t.Errorf("expected the 40ms sample, got %v", s.Time.Sub(epoch))
	}

	w.Push(sampleOf(t, palm, at(50)))
	if w.Len() != 2 || w.Span() != 10*time.Millisecond {
		t.Errorf("unexpected window after push: len=%d span=%v", w.Len(), w.Span())
	}
}

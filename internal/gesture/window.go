package gesture

import "time"

// Window is a fixed-capacity ring of recent samples, oldest first. Samples
// older than maxAge relative to the newest push are expired.
type Window struct {
	buf    []Sample
	start  int
	n      int
	maxAge time.Duration
	gaps   int
}

// NewWindow creates a window holding at most size samples.
func NewWindow(size int, maxAge time.Duration) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{
		buf:    make([]Sample, size),
		maxAge: maxAge,
	}
}

// Push appends s, evicting the oldest sample when full and any sample that
// has aged out.
func (w *Window) Push(s Sample) {
	if w.n == len(w.buf) {
		w.buf[w.start] = s
		w.start = (w.start + 1) % len(w.buf)
	} else {
		w.buf[(w.start+w.n)%len(w.buf)] = s
		w.n++
	}

	for w.n > 1 && s.Time.Sub(w.At(0).Time) > w.maxAge {
		w.start = (w.start + 1) % len(w.buf)
		w.n--
	}
}

// MarkGap records a frame without a usable pose. Motion is never measured
// across a tracking break, so the buffered samples are dropped.
func (w *Window) MarkGap(time.Time) {
	w.gaps++
	w.n = 0
	w.start = 0
}

// Gaps returns how many tracking breaks have been recorded.
func (w *Window) Gaps() int {
	return w.gaps
}

// At returns the i-th sample, 0 being the oldest.
func (w *Window) At(i int) Sample {
	return w.buf[(w.start+i)%len(w.buf)]
}

// Len returns the number of buffered samples.
func (w *Window) Len() int {
	return w.n
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return len(w.buf)
}

// Oldest returns the oldest sample, if any.
func (w *Window) Oldest() (Sample, bool) {
	if w.n == 0 {
		return Sample{}, false
	}
	return w.At(0), true
}

// Newest returns the most recent sample, if any.
func (w *Window) Newest() (Sample, bool) {
	if w.n == 0 {
		return Sample{}, false
	}
	return w.At(w.n - 1), true
}

// Span returns the time between the oldest and newest samples.
func (w *Window) Span() time.Duration {
	if w.n < 2 {
		return 0
	}
	return w.At(w.n - 1).Time.Sub(w.At(0).Time)
}

// KeepNewest discards everything but the newest sample.
func (w *Window) KeepNewest() {
	newest, ok := w.Newest()
	if !ok {
		return
	}
	w.start = 0
	w.n = 1
	w.buf[0] = newest
}

// Reset empties the window without counting a gap.
func (w *Window) Reset() {
	w.start = 0
	w.n = 0
}

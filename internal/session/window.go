package session

import "github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"

// window is a fixed-capacity ring of recent exchanges; the oldest entry is
// overwritten first.
type window struct {
	buf   []model.Exchange
	start int
	n     int
}

func newWindow(capacity int) *window {
	if capacity < 1 {
		capacity = 1
	}
	return &window{buf: make([]model.Exchange, capacity)}
}

func (w *window) push(ex model.Exchange) {
	if w.n < len(w.buf) {
		w.buf[(w.start+w.n)%len(w.buf)] = ex
		w.n++
		return
	}
	w.buf[w.start] = ex
	w.start = (w.start + 1) % len(w.buf)
}

// items returns the contents oldest first.
func (w *window) items() []model.Exchange {
	out := make([]model.Exchange, w.n)
	for i := 0; i < w.n; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

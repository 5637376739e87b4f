package download

import (
	"sync"

	"github.com/sodematha/mathasvc/internal/domain"
)

// flight is one running transfer shared by every caller of the same item.
type flight struct {
	done chan struct{}
	path string
	err  error

	mu        sync.Mutex
	state     domain.DownloadState
	sent      int
	callbacks []domain.ProgressFunc
	waiters   int
}

func newFlight(onProgress domain.ProgressFunc) *flight {
	f := &flight{
		done:  make(chan struct{}),
		state: domain.Downloading(0),
		sent:  -1,
	}
	if onProgress != nil {
		f.callbacks = append(f.callbacks, onProgress)
	}
	return f
}

func (f *flight) join(onProgress domain.ProgressFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waiters++
	if onProgress != nil {
		f.callbacks = append(f.callbacks, onProgress)
	}
}

func (f *flight) snapshot() domain.DownloadState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// apply moves the flight state and returns the progress value to emit, or -1
// when nothing changed.
func (f *flight) apply(ev domain.DownloadEvent) (int, []domain.ProgressFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, err := domain.Transition(f.state, ev)
	if err != nil {
		return -1, nil
	}
	f.state = next
	if next.Kind == domain.StateNotDownloaded || next.Progress <= f.sent {
		return -1, nil
	}
	f.sent = next.Progress

	fns := make([]domain.ProgressFunc, len(f.callbacks))
	copy(fns, f.callbacks)
	return next.Progress, fns
}

package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid download state transition")

// StateKind tags a DownloadState.
type StateKind int

const (
	StateNotDownloaded StateKind = iota
	StateDownloading
	StateDownloaded
	StateBundled
)

func (k StateKind) String() string {
	switch k {
	case StateNotDownloaded:
		return "not_downloaded"
	case StateDownloading:
		return "downloading"
	case StateDownloaded:
		return "downloaded"
	case StateBundled:
		return "bundled"
	default:
		return fmt.Sprintf("state(%d)", int(k))
	}
}

// DownloadState is the per-item state. Progress is only meaningful while
// downloading and LocalPath only once downloaded.
type DownloadState struct {
	Kind      StateKind
	Progress  int
	LocalPath string
}

func NotDownloaded() DownloadState { return DownloadState{Kind: StateNotDownloaded} }
func Bundled() DownloadState       { return DownloadState{Kind: StateBundled} }

func Downloading(progress int) DownloadState {
	return DownloadState{Kind: StateDownloading, Progress: clampProgress(progress)}
}

func Downloaded(localPath string) DownloadState {
	return DownloadState{Kind: StateDownloaded, Progress: 100, LocalPath: localPath}
}

type EventKind int

const (
	EventStart EventKind = iota
	EventProgress
	EventComplete
	EventFail
	EventDelete
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventProgress:
		return "progress"
	case EventComplete:
		return "complete"
	case EventFail:
		return "fail"
	case EventDelete:
		return "delete"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

type DownloadEvent struct {
	Kind      EventKind
	Progress  int
	LocalPath string
}

// Transition is the single place that decides how a DownloadState moves.
// Progress never decreases while downloading.
func Transition(s DownloadState, ev DownloadEvent) (DownloadState, error) {
	switch s.Kind {
	case StateNotDownloaded:
		switch ev.Kind {
		case EventStart:
			return Downloading(0), nil
		case EventDelete:
			return s, nil
		}
	case StateDownloading:
		switch ev.Kind {
		case EventProgress:
			p := clampProgress(ev.Progress)
			if p < s.Progress {
				p = s.Progress
			}
			return Downloading(p), nil
		case EventComplete:
			return Downloaded(ev.LocalPath), nil
		case EventFail:
			return NotDownloaded(), nil
		}
	case StateDownloaded:
		if ev.Kind == EventDelete {
			return NotDownloaded(), nil
		}
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev.Kind, s.Kind)
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

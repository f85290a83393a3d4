package session

import "time"

// Status is the lifecycle of the outstanding generation request.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// View is the visible screen.
type View int

const (
	ViewLanding View = iota
	ViewUpload
	ViewPreview
)

func (v View) String() string {
	switch v {
	case ViewLanding:
		return "landing"
	case ViewUpload:
		return "upload"
	case ViewPreview:
		return "preview"
	default:
		return "unknown"
	}
}

// Transient states revert to idle after these delays.
const (
	SuccessResetDelay = 1500 * time.Millisecond
	ErrorResetDelay   = 2000 * time.Millisecond
)

package canvas

import (
	"errors"
	"fmt"
)

// ErrCapacity rejects a mutation that would push the board past its layer limit.
var ErrCapacity = errors.New("layer limit reached")

// NetworkError wraps a failed preview fetch or upload. The canvas stays
// usable and no layer is created.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient user-facing message, e.g. a toast.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

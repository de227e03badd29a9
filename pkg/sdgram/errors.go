package sdgram

import (
	"errors"
	"fmt"

	"github.com/seagrayinc/sdgram/internal/frame"
)

var (
	// ErrPayloadTooLarge is matched by every PayloadSizeError.
	ErrPayloadTooLarge = frame.ErrPayloadTooLarge

	ErrClosed = errors.New("sdgram: transport closed")
)

// PayloadSizeError is returned by Send when the payload exceeds the
// configured maximum. Nothing is written in that case.
type PayloadSizeError struct {
	Port uint8
	Size int
	Max  int
}

func (e *PayloadSizeError) Error() string {
	return fmt.Sprintf("sdgram: payload of %d bytes for port %d exceeds max %d", e.Size, e.Port, e.Max)
}

func (e *PayloadSizeError) Unwrap() error {
	return ErrPayloadTooLarge
}

package frontend

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrFrameTooLarge guards against a corrupt or hostile length prefix
// forcing an unbounded allocation.
var ErrFrameTooLarge = errors.New("frontend: frame exceeds maximum size")

// MaxFrameSize bounds a single frame's payload length.
const MaxFrameSize = 1 << 20

// WriteFrame serialises v as JSON and writes it to w as a 4-byte
// big-endian length prefix followed by the payload bytes.
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("frontend: marshal frame: %w", err)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("frontend: write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("frontend: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed JSON frame from r and unmarshals
// it into v.
func ReadFrame(r io.Reader, v any) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return fmt.Errorf("frontend: read frame length: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("frontend: read frame payload: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("frontend: unmarshal frame: %w", err)
	}
	return nil
}

// ReadEvent reads one inbound Event frame from r.
func ReadEvent(r io.Reader) (Event, error) {
	var e Event
	err := ReadFrame(r, &e)
	return e, err
}

// WriteCommand writes one outbound Command frame to w.
func WriteCommand(w io.Writer, c Command) error {
	return WriteFrame(w, c)
}

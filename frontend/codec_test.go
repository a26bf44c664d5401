package frontend

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := Event{Kind: EventSendMessage, Server: 5, Peer: 11, MsgID: 42, Content: "hi"}
	if err := WriteFrame(&buf, want); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	var got Event
	if err := ReadFrame(&buf, &got); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x7F, 0xFF, 0xFF, 0xFF})
	var e Event
	if err := ReadFrame(&buf, &e); err != ErrFrameTooLarge {
		t.Fatalf("ReadFrame error = %v, want ErrFrameTooLarge", err)
	}
}

func TestWriteCommandThenReadFrame(t *testing.T) {
	var buf bytes.Buffer
	cmd := KillCommand()
	if err := WriteCommand(&buf, cmd); err != nil {
		t.Fatalf("WriteCommand: %v", err)
	}
	var got Command
	if err := ReadFrame(&buf, &got); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got.Kind != CommandKill {
		t.Fatalf("got kind %v, want kill", got.Kind)
	}
}

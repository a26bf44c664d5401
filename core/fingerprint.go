package core

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// fingerprintSize keeps the logged digest short: enough to tell fragments
// apart in a log stream without printing the whole payload.
const fingerprintSize = 6

// Fingerprint returns a short hex digest of data, used purely for log
// correlation (e.g. following one user message's fragments across hops).
// It is never consulted for routing or delivery decisions.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:fingerprintSize])
}

// Fingerprint returns a short log-correlation digest of the fragment's payload.
func (f Fragment) Fingerprint() string {
	return Fingerprint(f.Payload)
}

// TraceFingerprint returns a short log-correlation digest of a flood path
// trace, letting an operator tell two floods with the same id but
// different observed paths apart in logs.
func TraceFingerprint(trace []TraceEntry) string {
	buf := make([]byte, 0, len(trace)*2)
	for _, e := range trace {
		buf = append(buf, byte(e.Node), byte(e.Kind))
	}
	return Fingerprint(buf)
}

package ipc

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// Fingerprint summarizes a dictionary's content. Two dictionaries share a
// fingerprint only when they hold the same values in the same order;
// reordering counts as a change.
type Fingerprint [32]byte

// DictionaryFingerprint hashes dictionary content: the value count, then
// each value behind a little-endian length prefix.
func DictionaryFingerprint(values []string) Fingerprint {
	h := blake3.New()
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(len(values)))
	h.Write(scratch[:])
	for _, v := range values {
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(v)))
		h.Write(scratch[:])
		h.Write([]byte(v))
	}

	var fp Fingerprint
	h.Sum(fp[:0])
	return fp
}

// Decision is the tracker's verdict for one dictionary ahead of a write.
type Decision int

const (
	// DecisionSkip means identical content is already on the stream.
	DecisionSkip Decision = iota
	// DecisionEmit means this ID has not emitted a dictionary yet.
	DecisionEmit
	// DecisionReplace means content changed and a replacement message
	// must be emitted.
	DecisionReplace
	// DecisionReject means content changed but the stream disallows
	// replacement; the write must fail.
	DecisionReject
)

func (d Decision) String() string {
	switch d {
	case DecisionSkip:
		return "skip"
	case DecisionEmit:
		return "emit"
	case DecisionReplace:
		return "replace"
	case DecisionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// DictionaryTracker records, per dictionary ID, the fingerprint of the
// content last emitted on the stream. Each stream writer owns exactly one
// tracker; it is never shared across streams and is not safe for
// concurrent use.
type DictionaryTracker struct {
	fingerprints  map[int64]Fingerprint
	cannotReplace bool
}

// NewDictionaryTracker creates an empty tracker. With cannotReplace set
// the stream promises its readers immutable dictionaries: changed content
// for a known ID is rejected instead of replaced.
func NewDictionaryTracker(cannotReplace bool) *DictionaryTracker {
	return &DictionaryTracker{
		fingerprints:  make(map[int64]Fingerprint),
		cannotReplace: cannotReplace,
	}
}

// ShouldEmit decides whether a dictionary with the given content needs a
// message before the next chunk. Emit and Replace record the fingerprint;
// Skip and Reject leave the tracker unchanged.
func (t *DictionaryTracker) ShouldEmit(id int64, fp Fingerprint) Decision {
	prev, seen := t.fingerprints[id]
	switch {
	case !seen:
		t.fingerprints[id] = fp
		return DecisionEmit
	case prev == fp:
		return DecisionSkip
	case t.cannotReplace:
		return DecisionReject
	default:
		t.fingerprints[id] = fp
		return DecisionReplace
	}
}

package ipc

import (
	"encoding/binary"
	"io"

	"github.com/colstreamio/colstream/pkg/errors"
)

const (
	// continuationMarker precedes every framed message so readers can
	// tell a live message from the end-of-stream marker.
	continuationMarker uint32 = 0xFFFFFFFF

	// alignment is the boundary headers, bodies and body buffers are
	// zero-padded to.
	alignment = 8
)

var zeroPadding [alignment]byte

// paddedLength rounds n up to the alignment boundary.
func paddedLength(n int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}

// EncodedMessage is one logical message ready for framing: header bytes
// plus an optional body. Schema messages have no body.
type EncodedMessage struct {
	Meta []byte
	Body []byte
}

// writeMessage frames one message onto w: continuation marker, padded
// header length, header plus padding, then body plus padding when a body
// is present. Returns the metadata and body byte counts framed; on error
// the counts are zero and the stream must be considered corrupt.
func writeMessage(w io.Writer, m EncodedMessage) (metaLen, bodyLen int64, err error) {
	paddedMeta := paddedLength(len(m.Meta))

	var prefix [8]byte
	binary.LittleEndian.PutUint32(prefix[0:4], continuationMarker)
	binary.LittleEndian.PutUint32(prefix[4:8], uint32(paddedMeta))
	if _, err := w.Write(prefix[:]); err != nil {
		return 0, 0, errors.Wrap(err, errors.ErrorTypeIO, "writing message prefix")
	}
	if _, err := w.Write(m.Meta); err != nil {
		return 0, 0, errors.Wrap(err, errors.ErrorTypeIO, "writing message header")
	}
	if pad := paddedMeta - len(m.Meta); pad > 0 {
		if _, err := w.Write(zeroPadding[:pad]); err != nil {
			return 0, 0, errors.Wrap(err, errors.ErrorTypeIO, "writing header padding")
		}
	}
	metaLen = int64(len(prefix) + paddedMeta)

	if len(m.Body) == 0 {
		return metaLen, 0, nil
	}

	paddedBody := paddedLength(len(m.Body))
	if _, err := w.Write(m.Body); err != nil {
		return 0, 0, errors.Wrap(err, errors.ErrorTypeIO, "writing message body")
	}
	if pad := paddedBody - len(m.Body); pad > 0 {
		if _, err := w.Write(zeroPadding[:pad]); err != nil {
			return 0, 0, errors.Wrap(err, errors.ErrorTypeIO, "writing body padding")
		}
	}
	return metaLen, int64(paddedBody), nil
}

// writeEndOfStream writes the 4-byte zero terminal marker.
func writeEndOfStream(w io.Writer) (int64, error) {
	var marker [4]byte
	if _, err := w.Write(marker[:]); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeIO, "writing end-of-stream marker")
	}
	return int64(len(marker)), nil
}

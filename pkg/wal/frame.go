package wal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cuemby/protobase/pkg/types"
	"github.com/vmihailenco/msgpack/v5"
)

// frameHeaderSize is the length-prefix-only portion of a frame; the
// format byte, when present, follows it.
const frameHeaderSize = 8

// encodeFrame renders length+format+payload per spec §6.3. The
// payload passed in is already the bytes to store (a caller that
// wants a map encoded calls encodePayload first).
func encodeFrame(format types.PayloadFormat, payload []byte) []byte {
	buf := make([]byte, frameHeaderSize+1+len(payload))
	binary.BigEndian.PutUint64(buf[0:8], uint64(len(payload)))
	buf[8] = byte(format)
	copy(buf[9:], payload)
	return buf
}

// encodePayload serializes a map per format.
func encodePayload(format types.PayloadFormat, value map[string]any) ([]byte, error) {
	switch format {
	case types.FormatJSON:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: encode json payload: %v", types.ErrValidation, err)
		}
		return data, nil
	case types.FormatMsgpack:
		data, err := msgpack.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: encode msgpack payload: %v", types.ErrValidation, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode a map with format %s", types.ErrValidation, format)
	}
}

// decodePayload deserializes a framed payload into a map per format.
// FormatRaw payloads have no map representation; callers asking for a
// decoded atom from a raw frame get ErrCorruption.
func decodePayload(format types.PayloadFormat, payload []byte) (map[string]any, error) {
	switch format {
	case types.FormatJSON:
		var m map[string]any
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("%w: decode json payload: %v", types.ErrCorruption, err)
		}
		return m, nil
	case types.FormatMsgpack:
		var m map[string]any
		if err := msgpack.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("%w: decode msgpack payload: %v", types.ErrCorruption, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: frame at format %s has no map representation", types.ErrCorruption, format)
	}
}

// readFrameAt decodes one frame starting at off from r, applying the
// legacy-format fallback from spec §4.2: if the byte following the
// length does not look like one of the three known format codes, it
// is treated as the first payload byte and the frame is assumed to be
// FormatJSON.
//
// Returns the format, the payload bytes (excluding any header), and
// the total number of bytes the frame occupied on the wire.
func readFrameAt(r readerAt, off uint64) (types.PayloadFormat, []byte, uint64, error) {
	lenBuf := make([]byte, frameHeaderSize+1)
	n, err := r.ReadAt(lenBuf, int64(off))
	if err != nil && n < frameHeaderSize+1 {
		return 0, nil, 0, fmt.Errorf("%w: read frame header: %v", types.ErrCorruption, err)
	}
	length := binary.BigEndian.Uint64(lenBuf[0:8])
	candidate := types.PayloadFormat(lenBuf[8])

	if candidate.IsValid() {
		payload := make([]byte, length)
		if length > 0 {
			if _, err := r.ReadAt(payload, int64(off)+frameHeaderSize+1); err != nil {
				return 0, nil, 0, fmt.Errorf("%w: read frame payload: %v", types.ErrCorruption, err)
			}
		}
		return candidate, payload, frameHeaderSize + 1 + length, nil
	}

	// Legacy frame: the byte we peeked as a format code is actually
	// the first payload byte.
	payload := make([]byte, length)
	if length > 0 {
		payload[0] = lenBuf[8]
		if length > 1 {
			if _, err := r.ReadAt(payload[1:], int64(off)+frameHeaderSize+1); err != nil {
				return 0, nil, 0, fmt.Errorf("%w: read legacy frame payload: %v", types.ErrCorruption, err)
			}
		}
	}
	return types.FormatJSON, payload, frameHeaderSize + length, nil
}

// readerAt is the minimal surface readFrameAt needs from a
// block.ReadStream, kept local so this file has no import-time
// dependency on pkg/block beyond the interface shape.
type readerAt interface {
	ReadAt(p []byte, off int64) (int, error)
}

package types

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// PayloadFormat identifies how an atom's bytes are framed on the WAL.
type PayloadFormat uint8

const (
	// FormatRaw stores the payload verbatim, with no decoding.
	FormatRaw PayloadFormat = 0x00
	// FormatJSON decodes the payload as UTF-8 JSON into a map.
	FormatJSON PayloadFormat = 0x01
	// FormatMsgpack decodes the payload as MessagePack into a map.
	FormatMsgpack PayloadFormat = 0x02
)

// IsValid reports whether f is one of the recognized frame format codes.
func (f PayloadFormat) IsValid() bool {
	switch f {
	case FormatRaw, FormatJSON, FormatMsgpack:
		return true
	default:
		return false
	}
}

func (f PayloadFormat) String() string {
	switch f {
	case FormatRaw:
		return "RAW"
	case FormatJSON:
		return "JSON_UTF8"
	case FormatMsgpack:
		return "MSGPACK"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(f))
	}
}

// AtomPointerSize is the fixed encoded size of an AtomPointer: a
// 16-byte transaction UUID followed by an 8-byte big-endian offset.
const AtomPointerSize = 16 + 8

// AtomPointer identifies a persisted atom by the WAL segment it was
// written to (named by the segment's owning transaction UUID, per
// spec §3) and the byte offset within that segment where its frame
// begins. It is immutable once assigned and is the only stable
// identity an atom carries.
type AtomPointer struct {
	TransactionID uuid.UUID
	Offset        uint64
}

// ZeroPointer is the pointer value used to mean "no atom" (e.g. an
// empty root).
var ZeroPointer = AtomPointer{}

// IsZero reports whether p is the zero pointer.
func (p AtomPointer) IsZero() bool {
	return p == ZeroPointer
}

func (p AtomPointer) String() string {
	return fmt.Sprintf("%s:%d", p.TransactionID, p.Offset)
}

// Encode writes the bit-exact 24-byte root-pointer record layout from
// spec §6.4: transaction_uuid (16 bytes big-endian) then offset (8
// bytes big-endian).
func (p AtomPointer) Encode() []byte {
	buf := make([]byte, AtomPointerSize)
	copy(buf[0:16], p.TransactionID[:])
	binary.BigEndian.PutUint64(buf[16:24], p.Offset)
	return buf
}

// DecodeAtomPointer parses the layout written by Encode.
func DecodeAtomPointer(buf []byte) (AtomPointer, error) {
	if len(buf) != AtomPointerSize {
		return AtomPointer{}, fmt.Errorf("%w: root pointer record is %d bytes, want %d", ErrCorruption, len(buf), AtomPointerSize)
	}
	var id uuid.UUID
	copy(id[:], buf[0:16])
	return AtomPointer{
		TransactionID: id,
		Offset:        binary.BigEndian.Uint64(buf[16:24]),
	}, nil
}

// NewTransactionID allocates a fresh 128-bit transaction/segment
// identity.
func NewTransactionID() uuid.UUID {
	return uuid.New()
}

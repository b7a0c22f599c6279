/*
Package wal implements AtomStore, the component that frames maps and
opaque byte payloads onto the segments exposed by pkg/block and
recovers them on read.

# Frame layout

	[ length: u64 big-endian ][ format: u8 ][ payload: length bytes ]

Legacy records predate the format byte: if the byte immediately after
the length looks like it could be the start of a JSON/UTF-8 payload
rather than one of the three known format codes, it is folded back
into the payload and the frame is decoded as FormatJSON. This keeps
old segments readable without a migration step.

# Background flushing

AtomStore batches writer-visible appends and periodically calls
Fsync on a ticker, the same ticker-plus-stop-channel shape the
ambient metrics collector uses, so a push_atom's returned pointer is
valid (readable) before it is durable; Sync forces the durable point.
*/
package wal

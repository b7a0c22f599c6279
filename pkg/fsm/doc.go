// Package fsm is the small deterministic state-machine contract spec
// §2.9 calls for: "included only as an interface contract." It is not
// a consensus log — the teacher's pkg/manager/fsm.go implements
// raft.FSM's Apply/Snapshot/Restore against a replicated log; this
// package keeps that shape (an event drives a deterministic
// transition, state can be snapshotted and restored) for the
// background tasks spec §9 describes as "regular tasks with a running
// flag and a bounded join at close", such as the WAL flusher or a
// background uploader, without any of the replication machinery
// behind it. No package of this module uses it yet.
package fsm

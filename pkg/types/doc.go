/*
Package types defines the core data structures shared across ProtoBase:
atom identity, error kinds, and the engine's configuration surface.

# Architecture

	┌──────────────────── TYPES ────────────────────────────────┐
	│                                                            │
	│  AtomPointer  (transaction_uuid, offset)                  │
	│       │  stable identity for a persisted atom              │
	│       ▼                                                    │
	│  PayloadFormat  RAW | JSON_UTF8 | MSGPACK                 │
	│       │  how an atom's bytes are framed on the WAL         │
	│       ▼                                                    │
	│  Config  cache sizes, stripes, fsync policy, parallelism  │
	│                                                            │
	└────────────────────────────────────────────────────────────┘

# Error kinds

Errors are modeled as sentinel values (ErrCorruption, ErrIO,
ErrConflict, ErrValidation, ErrTimeout, ErrExpression, ErrClosed)
rather than as bespoke exception types, so callers use
ordinary errors.Is/errors.As. Each sentinel is wrapped with context via
fmt.Errorf("...: %w", err) at the point of failure, matching the
wrapping style used throughout this codebase.

# Configuration

Config collects every named option from the storage engine's
configuration surface (cache sizing, WAL rotation, commit durability,
parallel scan tuning) with the documented defaults. It can be built by
hand or loaded from YAML via LoadConfig.
*/
package types

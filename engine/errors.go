package engine

import "errors"

// ErrKeyNotFound is returned by Remove when the key is absent. The message
// is capitalized to match the exact string the wire protocol and CLI
// surface to users (SPEC_FULL.md §6.3, §8 scenario 4).
var ErrKeyNotFound = errors.New("Key not found")

// ErrUnexpectedCommandType is returned when the index points at a log
// position that does not decode to a Set record. This implies corruption
// of the log or a bug in the index bookkeeping.
var ErrUnexpectedCommandType = errors.New("unexpected command type")

// ErrEngineMismatch is returned at server bootstrap when the data
// directory's persisted engine kind disagrees with the one requested on
// the command line.
var ErrEngineMismatch = errors.New("engine mismatch")

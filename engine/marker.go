package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/natefinch/atomic"
)

// Kind names which engine backend last wrote a data directory.
type Kind string

const (
	// KindKVS is the log-structured engine implemented by KVStore.
	KindKVS Kind = "kvs"
	// KindSled names the alternative adapter over a third-party embedded
	// store (out of scope here; its contract is just Engine).
	KindSled Kind = "sled"
)

const markerFileName = ".engine"

// ReadKind reads the persisted engine kind from dir's marker file. It
// returns ("", false, nil) if the directory has no marker yet (a brand new
// data directory).
func ReadKind(dir string) (Kind, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, markerFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("engine: read marker: %w", err)
	}
	var kind Kind
	if err := json.Unmarshal(data, &kind); err != nil {
		return "", false, fmt.Errorf("engine: decode marker: %w", err)
	}
	return kind, true, nil
}

// WriteKind atomically persists kind as dir's marker file, so a crash
// mid-write never leaves a torn marker behind.
func WriteKind(dir string, kind Kind) error {
	data, err := json.Marshal(kind)
	if err != nil {
		return fmt.Errorf("engine: encode marker: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(dir, markerFileName), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("engine: write marker: %w", err)
	}
	return nil
}

// CheckKind verifies that want matches dir's persisted engine kind,
// persisting want if the directory is new. Returns ErrEngineMismatch if an
// existing marker names a different kind.
func CheckKind(dir string, want Kind) error {
	existing, ok, err := ReadKind(dir)
	if err != nil {
		return err
	}
	if !ok {
		return WriteKind(dir, want)
	}
	if existing != want {
		return fmt.Errorf("%w: data directory was last written by %q, refusing to open as %q", ErrEngineMismatch, existing, want)
	}
	return nil
}

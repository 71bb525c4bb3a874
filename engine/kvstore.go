package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/puzpuzpuz/xsync/v3"
)

// CompactionThreshold is the number of stale bytes that triggers an online
// compaction after a write or delete.
const CompactionThreshold = 1024 * 1024 // 1 MiB

// logFileName is the append-only log inside the engine's data directory.
const logFileName = "wal.log"

// compactFileName is the transient file used while rewriting the log.
const compactFileName = "wal.log.compact"

// extent locates a record's bytes on disk.
type extent struct {
	offset int64
	length int64
}

// state is the one piece of mutable shared storage behind every clone of a
// KVStore: the append handle, the random-access read handle, the index and
// the stale-byte counter, all guarded by a single mutex. Compaction and
// every read/write operation hold this mutex for their full duration; see
// SPEC_FULL.md §5 for the rationale.
type state struct {
	mu sync.Mutex

	dir        string
	writerFile *os.File
	readerFile *os.File
	pos        int64 // == writerFile's length; invariant I2

	index      *xsync.Map // string -> extent
	staleBytes int64
}

// KVStore is the log-structured engine: an append-only on-disk log indexed
// by an in-memory map, with online compaction. It is a small struct
// wrapping a pointer to shared state, so copying a KVStore by value is
// already a cheap, goroutine-safe "clone" that shares the same underlying
// files and index.
type KVStore struct {
	s *state
}

var _ Engine = KVStore{}

// Open creates dir and its log file if missing, rebuilds the index by
// scanning the log, and returns a ready-to-use handle. The returned handle
// (and any copies of it) may be used concurrently from multiple
// goroutines.
func Open(dir string) (KVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return KVStore{}, fmt.Errorf("engine: create data directory: %w", err)
	}

	logPath := filepath.Join(dir, logFileName)

	writerFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return KVStore{}, fmt.Errorf("engine: open log for append: %w", err)
	}

	readerFile, err := os.Open(logPath)
	if err != nil {
		writerFile.Close()
		return KVStore{}, fmt.Errorf("engine: open log for read: %w", err)
	}

	index, stale, err := buildIndex(readerFile)
	if err != nil {
		writerFile.Close()
		readerFile.Close()
		return KVStore{}, err
	}

	info, err := writerFile.Stat()
	if err != nil {
		writerFile.Close()
		readerFile.Close()
		return KVStore{}, fmt.Errorf("engine: stat log: %w", err)
	}

	return KVStore{s: &state{
		dir:        dir,
		writerFile: writerFile,
		readerFile: readerFile,
		pos:        info.Size(),
		index:      index,
		staleBytes: stale,
	}}, nil
}

// buildIndex scans the log from offset 0, decoding one record at a time and
// applying each as if it had just been written, reproducing the
// stale-byte accounting of the online write/delete paths (I5).
func buildIndex(r *os.File) (*xsync.Map, int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("engine: seek log: %w", err)
	}

	dec := json.NewDecoder(r)
	index := xsync.NewMap()
	var stale int64
	var pos int64

	for {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, fmt.Errorf("engine: decode log record: %w", err)
		}
		newPos := dec.InputOffset()
		length := newPos - pos

		if rec.isSet() {
			if old, loaded := index.Load(rec.Set.Key); loaded {
				stale += old.(extent).length
			}
			index.Store(rec.Set.Key, extent{offset: pos, length: length})
		} else {
			if old, loaded := index.Load(rec.Remove.Key); loaded {
				stale += old.(extent).length
				index.Delete(rec.Remove.Key)
			}
			stale += length
		}
		pos = newPos
	}

	return index, stale, nil
}

// Close releases the engine's file handles. Writes are not buffered in the
// engine, so there is nothing left to flush.
// The KVStore (and every clone of it) must not be used after Close.
func (k KVStore) Close() error {
	s := k.s
	s.mu.Lock()
	defer s.mu.Unlock()

	werr := s.writerFile.Close()
	rerr := s.readerFile.Close()
	if werr != nil {
		return fmt.Errorf("engine: close writer: %w", werr)
	}
	if rerr != nil {
		return fmt.Errorf("engine: close reader: %w", rerr)
	}
	return nil
}

// Set commits key=value durably, overwriting any previous value silently.
func (k KVStore) Set(key, value string) error {
	s := k.s
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := setRecord(key, value).marshal()
	if err != nil {
		return fmt.Errorf("engine: encode set record: %w", err)
	}

	start := s.pos
	n, err := s.writerFile.Write(data)
	if err != nil {
		return fmt.Errorf("engine: append log: %w", err)
	}
	s.pos = start + int64(n)

	if old, loaded := s.index.Load(key); loaded {
		s.staleBytes += old.(extent).length
	}
	s.index.Store(key, extent{offset: start, length: int64(n)})

	return s.maybeCompactLocked()
}

// Get returns the current value of key, or ("", false, nil) if absent.
func (k KVStore) Get(key string) (string, bool, error) {
	s := k.s
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.index.Load(key)
	if !ok {
		return "", false, nil
	}
	ext := v.(extent)

	if _, err := s.readerFile.Seek(ext.offset, io.SeekStart); err != nil {
		return "", false, fmt.Errorf("engine: seek log: %w", err)
	}
	buf := make([]byte, ext.length)
	if _, err := io.ReadFull(s.readerFile, buf); err != nil {
		return "", false, fmt.Errorf("engine: read log: %w", err)
	}

	rec, err := unmarshalRecord(buf)
	if err != nil {
		return "", false, fmt.Errorf("engine: decode log record: %w", err)
	}
	if !rec.isSet() {
		return "", false, ErrUnexpectedCommandType
	}
	return rec.Set.Value, true, nil
}

// Remove deletes key, returning ErrKeyNotFound if it was absent.
func (k KVStore) Remove(key string) error {
	s := k.s
	s.mu.Lock()
	defer s.mu.Unlock()

	old, loaded := s.index.Load(key)
	if !loaded {
		return ErrKeyNotFound
	}

	data, err := removeRecord(key).marshal()
	if err != nil {
		return fmt.Errorf("engine: encode remove record: %w", err)
	}
	n, err := s.writerFile.Write(data)
	if err != nil {
		return fmt.Errorf("engine: append log: %w", err)
	}
	s.pos += int64(n)

	s.index.Delete(key)
	s.staleBytes += old.(extent).length + int64(n)

	return s.maybeCompactLocked()
}

// maybeCompactLocked triggers compaction once stale_bytes crosses the
// threshold. Callers must already hold s.mu.
func (s *state) maybeCompactLocked() error {
	if s.staleBytes <= CompactionThreshold {
		return nil
	}
	return s.compactLocked()
}

// compactLocked rewrites the log to contain exactly one Set record per live
// key and resets the stale-byte counter to zero (I4). Callers must already
// hold s.mu; compaction therefore excludes every other engine operation for
// its full duration.
func (s *state) compactLocked() error {
	compactPath := filepath.Join(s.dir, compactFileName)
	logPath := filepath.Join(s.dir, logFileName)

	compactFile, err := os.OpenFile(compactPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("engine: create compaction file: %w", err)
	}

	newIndex := xsync.NewMap()
	var writePos int64
	var copyErr error

	s.index.Range(func(key string, value interface{}) bool {
		ext := value.(extent)
		if _, err := s.readerFile.Seek(ext.offset, io.SeekStart); err != nil {
			copyErr = fmt.Errorf("engine: seek log during compaction: %w", err)
			return false
		}
		buf := make([]byte, ext.length)
		if _, err := io.ReadFull(s.readerFile, buf); err != nil {
			copyErr = fmt.Errorf("engine: read log during compaction: %w", err)
			return false
		}
		n, err := compactFile.Write(buf)
		if err != nil {
			copyErr = fmt.Errorf("engine: write compaction file: %w", err)
			return false
		}
		newIndex.Store(key, extent{offset: writePos, length: int64(n)})
		writePos += int64(n)
		return true
	})
	if copyErr != nil {
		compactFile.Close()
		os.Remove(compactPath)
		return copyErr
	}

	if err := compactFile.Sync(); err != nil {
		compactFile.Close()
		os.Remove(compactPath)
		return fmt.Errorf("engine: sync compaction file: %w", err)
	}
	if err := compactFile.Close(); err != nil {
		os.Remove(compactPath)
		return fmt.Errorf("engine: close compaction file: %w", err)
	}

	if err := os.Rename(compactPath, logPath); err != nil {
		return fmt.Errorf("engine: install compacted log: %w", err)
	}

	if err := s.writerFile.Close(); err != nil {
		return fmt.Errorf("engine: close old writer: %w", err)
	}
	newWriter, err := os.OpenFile(logPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("engine: reopen writer after compaction: %w", err)
	}

	if err := s.readerFile.Close(); err != nil {
		newWriter.Close()
		return fmt.Errorf("engine: close old reader: %w", err)
	}
	newReader, err := os.Open(logPath)
	if err != nil {
		newWriter.Close()
		return fmt.Errorf("engine: reopen reader after compaction: %w", err)
	}

	s.writerFile = newWriter
	s.readerFile = newReader
	s.pos = writePos
	s.index = newIndex
	s.staleBytes = 0

	return nil
}

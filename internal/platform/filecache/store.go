package filecache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fpl-pulse/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
)

var keyCharsRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Store maps string keys to JSON documents, one file per key under a fixed
// directory. The file modification time is the sole freshness signal; no TTL
// is stored inside the documents. Single-writer by assumption: writes are
// plain overwrites with no locking or atomic rename.
type Store struct {
	dir    string
	logger *logging.Logger
}

func NewStore(dir string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Default()
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}

	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// IsValid reports whether an entry exists and its age is still below maxAge.
func (s *Store) IsValid(key string, maxAge time.Duration) bool {
	info, err := os.Stat(s.entryPath(key))
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < maxAge
}

// Load decodes the entry for key into target. A missing, unreadable, or
// corrupt entry reports false; callers must have a fallback for every Load.
func (s *Store) Load(key string, target any) bool {
	path := s.entryPath(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("could not read cache entry", "key", key, "error", err)
		}
		return false
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		s.logger.Warn("could not decode cache entry, treating as miss", "key", key, "error", err)
		return false
	}
	return true
}

// Save overwrites any prior document for key unconditionally.
func (s *Store) Save(key string, doc any) error {
	raw, err := sonic.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.Write(raw)
	_ = buf.WriteByte('\n')

	if err := os.WriteFile(s.entryPath(key), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	return nil
}

// Count reports the number of cache entries on disk.
func (s *Store) Count() int {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return 0
	}
	return len(matches)
}

// Clear removes every entry. Removal failures on individual files are
// collected into one error; the sweep always visits all entries.
func (s *Store) Clear() error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("list cache entries: %w", err)
	}

	var failed []string
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			failed = append(failed, filepath.Base(path))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("remove cache entries: %s", strings.Join(failed, ", "))
	}
	return nil
}

// Age returns the entry's time since last write.
func (s *Store) Age(key string) (time.Duration, bool) {
	info, err := os.Stat(s.entryPath(key))
	if err != nil {
		return 0, false
	}
	return time.Since(info.ModTime()), true
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.dir, keyCharsRegex.ReplaceAllString(key, "_")+".json")
}

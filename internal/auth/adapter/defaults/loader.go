// Package defaults loads the statically configured fallback record used
// when the callback returns no usable data or mock mode is active.
package defaults

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"authcallback/internal/domain"
)

// Loader reads the default record file. Parsed records are cached keyed
// by the file's modification time and size, so repeated fallbacks do not
// re-parse an unchanged file while edits are still picked up at call time.
type Loader struct {
	path string

	mu      sync.RWMutex
	cached  *domain.Record
	modTime time.Time
	size    int64
}

// NewLoader creates a loader for the default record at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load returns the default record, or nil when none is available. An
// absent file is the normal case for deployments without a default;
// a present-but-unparseable file is degraded to "no default" as well.
// Load never fails. Each caller receives its own copy of the record.
func (l *Loader) Load() *domain.Record {
	info, err := os.Stat(l.path)
	if err != nil {
		slog.Debug("default record file does not appear to exist, assuming no default",
			"path", l.path)
		return nil
	}

	l.mu.RLock()
	if l.cached != nil && info.ModTime().Equal(l.modTime) && info.Size() == l.size {
		record := l.cached
		l.mu.RUnlock()
		return record.Clone()
	}
	l.mu.RUnlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		slog.Warn("could not read default record file", "path", l.path, "error", err)
		return nil
	}

	var record domain.Record
	if err := json.Unmarshal(data, &record); err != nil {
		slog.Warn("could not parse default record file", "path", l.path, "error", err)
		return nil
	}

	l.mu.Lock()
	l.cached = &record
	l.modTime = info.ModTime()
	l.size = info.Size()
	l.mu.Unlock()

	return record.Clone()
}

package calib

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/dinesh-mcw/m30-sub000/internal/monitoring"
)

// Store holds the current mapping table and pixel mask and notifies readers
// when Reload replaces either one. A zero Store is valid and reports
// CalibrationUnavailable until the first successful Reload — this is the
// degraded-but-running mode spec.md's error handling design calls for.
type Store struct {
	mu      sync.RWMutex
	mapping MappingHandle
	mask    PixelMaskHandle

	// generation increments on every successful Reload. FOV engines compare
	// it against the generation they last observed to decide whether to set
	// a completed segment's "mapping table changed" flag.
	generation int64

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore returns an empty store; CalibrationUnavailable until Reload
// succeeds at least once.
func NewStore() *Store {
	return &Store{}
}

// Reload loads a fresh mapping table and pixel mask from the given paths and
// atomically swaps them in. mappingPath's extension selects the format:
// ".csv" parses text, anything else (typically ".bin") parses the fixed-
// record binary format. Either path may be empty, in which case that input
// is left at its previous value (or unavailable, if never loaded).
func (s *Store) Reload(mappingPath, pixelMaskPath string) error {
	var newMapping MappingHandle
	haveMapping := false
	if mappingPath != "" {
		var err error
		if strings.EqualFold(filepath.Ext(mappingPath), ".csv") {
			newMapping, err = LoadMappingTableCSV(mappingPath)
		} else {
			newMapping, err = LoadMappingTableBinary(mappingPath)
		}
		if err != nil {
			return fmt.Errorf("calib: reload mapping table: %w", err)
		}
		haveMapping = true
	}

	var newMask PixelMaskHandle
	haveMask := false
	if pixelMaskPath != "" {
		var err error
		newMask, err = LoadPixelMask(pixelMaskPath)
		if err != nil {
			return fmt.Errorf("calib: reload pixel mask: %w", err)
		}
		haveMask = true
	}

	s.mu.Lock()
	if haveMapping {
		s.mapping = newMapping
	}
	if haveMask {
		s.mask = newMask
	}
	atomic.AddInt64(&s.generation, 1)
	s.mu.Unlock()

	monitoring.Log(monitoring.LevelInfo, "calib: reloaded (mapping=%v mask=%v)", haveMapping, haveMask)
	return nil
}

// Mapping returns the current mapping handle. A zero-value, invalid handle
// means CalibrationUnavailable.
func (s *Store) Mapping() MappingHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapping
}

// PixelMask returns the current pixel mask handle. A zero-value, invalid
// handle means CalibrationUnavailable (mask checks degrade to passthrough).
func (s *Store) PixelMask() PixelMaskHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mask
}

// Generation returns the current reload counter, for callers tracking
// whether the mapping table is new since they last observed it.
func (s *Store) Generation() int64 {
	return atomic.LoadInt64(&s.generation)
}

// WatchDir starts watching dir for changes to the named mapping and pixel
// mask files, calling Reload automatically when either is written. This is
// additive: the synchronous Reload remains the primary entry point, and
// callers that never call WatchDir see identical behavior. Close stops the
// watch.
func (s *Store) WatchDir(dir, mappingFile, pixelMaskFile string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("calib: starting watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("calib: watching %s: %w", dir, err)
	}

	s.watcher = w
	s.done = make(chan struct{})

	mappingPath := filepath.Join(dir, mappingFile)
	maskPath := filepath.Join(dir, pixelMaskFile)

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				switch filepath.Clean(ev.Name) {
				case filepath.Clean(mappingPath):
					if err := s.Reload(mappingPath, ""); err != nil {
						monitoring.Log(monitoring.LevelWarning, "calib: watch reload mapping: %v", err)
					}
				case filepath.Clean(maskPath):
					if err := s.Reload("", maskPath); err != nil {
						monitoring.Log(monitoring.LevelWarning, "calib: watch reload pixel mask: %v", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				monitoring.Log(monitoring.LevelWarning, "calib: watch error: %v", err)
			case <-s.done:
				return
			}
		}
	}()
	return nil
}

// Close stops any active directory watch. Safe to call even if WatchDir was
// never called.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	return s.watcher.Close()
}

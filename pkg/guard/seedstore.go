package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/fsnotify/fsnotify"
	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// SeedStore keeps named collections of attack seed phrases in an embedded
// vector database and answers nearest-neighbour similarity queries for the
// stages that need paraphrase detection on top of the regex tables.
type SeedStore struct {
	db    *chromem.DB
	embed chromem.EmbeddingFunc

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	ready       bool
}

// NewSeedStore creates an empty store backed by the deterministic hash
// embedder. Call LoadDefaults or LoadSeeds before querying.
func NewSeedStore() *SeedStore {
	return &SeedStore{
		db:          chromem.NewDB(),
		embed:       NewEmbeddingFunc(),
		collections: make(map[string]*chromem.Collection),
	}
}

// LoadDefaults loads the built-in seed sets used by the ingestion guard
// and the memory verifier.
func (s *SeedStore) LoadDefaults(ctx context.Context) error {
	if err := s.LoadSeeds(ctx, SeedsInjection, InjectionSeeds); err != nil {
		return err
	}
	return s.LoadSeeds(ctx, SeedsMemory, MemorySeeds)
}

// LoadSeeds replaces the named collection with the given seed phrases.
// Reloading an existing collection swaps it wholesale, so a partially
// written seed file never leaves the store in a mixed state.
func (s *SeedStore) LoadSeeds(ctx context.Context, name string, seeds []string) error {
	if name == "" {
		return invalidInput("collection", "name must not be empty")
	}
	if len(seeds) == 0 {
		return invalidInput("seeds", fmt.Sprintf("collection %q has no seed phrases", name))
	}

	collection, err := s.db.CreateCollection(name, nil, s.embed)
	if err != nil {
		return detectorFailure("seed store", "create collection %q: %v", name, err)
	}

	docs := make([]chromem.Document, len(seeds))
	for i, text := range seeds {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("seed_%d", i),
			Content: text,
		}
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return detectorFailure("seed store", "add seeds to %q: %v", name, err)
	}

	s.mu.Lock()
	s.collections[name] = collection
	s.ready = true
	s.mu.Unlock()
	return nil
}

// MaxSimilarity returns the cosine similarity between text and its nearest
// seed in the named collection, floored at zero. An unloaded collection is
// a caller bug and surfaces as a DetectorFailure so the stage fails closed.
func (s *SeedStore) MaxSimilarity(ctx context.Context, name, text string) (float64, error) {
	if text == "" {
		return 0, nil
	}

	s.mu.RLock()
	collection, ok := s.collections[name]
	s.mu.RUnlock()
	if !ok {
		return 0, detectorFailure("seed store", "collection %q not loaded", name)
	}
	if collection.Count() == 0 {
		return 0, nil
	}

	results, err := collection.Query(ctx, text, 1, nil, nil)
	if err != nil {
		return 0, detectorFailure("seed store", "query %q: %v", name, err)
	}
	if len(results) == 0 {
		return 0, nil
	}

	sim := float64(results[0].Similarity)
	if sim < 0 {
		sim = 0
	}
	return sim, nil
}

// SeedCount returns the number of seeds in the named collection, or zero
// if it has not been loaded.
func (s *SeedStore) SeedCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if collection, ok := s.collections[name]; ok {
		return collection.Count()
	}
	return 0
}

// IsReady reports whether at least one collection has been loaded.
func (s *SeedStore) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// LoadSeedFile loads seed overrides from a JSON file mapping collection
// names to seed phrase lists. Collections not present in the file keep
// their current contents.
func (s *SeedStore) LoadSeedFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var sets map[string][]string
	if err := json.Unmarshal(data, &sets); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}

	for name, seeds := range sets {
		if err := s.LoadSeeds(ctx, name, seeds); err != nil {
			return err
		}
	}
	return nil
}

// WatchSeedFile reloads the seed file whenever it changes on disk. The
// parent directory is watched rather than the file itself so that
// editor-style atomic replaces (write temp, rename over) are caught.
// The watcher stops when ctx is cancelled.
func (s *SeedStore) WatchSeedFile(ctx context.Context, path string, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := s.LoadSeedFile(ctx, target); err != nil {
					logger.Warn("seed file reload failed", zap.String("path", target), zap.Error(err))
					continue
				}
				logger.Info("seed file reloaded", zap.String("path", target))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("seed file watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

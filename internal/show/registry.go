package show

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-desk/internal/cue"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides cue list management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by every write method.
type Registry struct {
	repo    Repository
	cache   map[int]*cue.CueList
	cacheMu sync.RWMutex
	logger  Logger
}

// NewRegistry creates a new cue list registry.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[int]*cue.CueList),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all cue lists from the repository into the cache.
func (r *Registry) RefreshCache(ctx context.Context) error {
	lists, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading cue lists: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[int]*cue.CueList, len(lists))
	for _, l := range lists {
		r.cache[l.Number] = l.Clone()
	}

	r.logger.Info("cue list cache refreshed", "count", len(lists))
	return nil
}

// ListCueLists returns deep copies of all cue lists sorted by number.
func (r *Registry) ListCueLists(_ context.Context) []*cue.CueList {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	lists := make([]*cue.CueList, 0, len(r.cache))
	for _, l := range r.cache {
		lists = append(lists, l.Clone())
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].Number < lists[j].Number })
	return lists
}

// GetCueList returns a deep copy of one cue list.
func (r *Registry) GetCueList(_ context.Context, number int) (*cue.CueList, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	l, ok := r.cache[number]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrCueListNotFound, number)
	}
	return l.Clone(), nil
}

// GetCue returns a deep copy of one cue definition.
func (r *Registry) GetCue(_ context.Context, listNumber, cueNumber int) (*cue.Cue, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	l, ok := r.cache[listNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrCueListNotFound, listNumber)
	}
	c, ok := l.Cue(cueNumber)
	if !ok {
		return nil, fmt.Errorf("%w: %d/%d", ErrCueNotFound, listNumber, cueNumber)
	}
	return c.Clone(), nil
}

// SaveCueList validates, persists and caches a cue list, replacing any list
// with the same number.
func (r *Registry) SaveCueList(ctx context.Context, list *cue.CueList) error {
	if err := list.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCueList, err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	if err := r.repo.Save(ctx, list); err != nil {
		return err
	}
	r.cache[list.Number] = list.Clone()

	r.logger.Info("cue list saved", "cue_list", list.Number, "cues", list.Len())
	return nil
}

// SaveCue adds or replaces one cue in a list. The list is created if it
// does not exist yet.
func (r *Registry) SaveCue(ctx context.Context, listNumber int, c *cue.Cue) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCueList, err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	list := cue.NewCueList(listNumber)
	if cached, ok := r.cache[listNumber]; ok {
		list = cached.Clone()
	}
	list.AddCue(c.Clone())

	if err := r.repo.Save(ctx, list); err != nil {
		return err
	}
	r.cache[listNumber] = list

	r.logger.Info("cue saved", "cue_list", listNumber, "cue", c.Number, "channels", c.Len())
	return nil
}

// DeleteCueList removes a cue list from persistence and cache.
func (r *Registry) DeleteCueList(ctx context.Context, number int) error {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	if err := r.repo.Delete(ctx, number); err != nil {
		return err
	}
	delete(r.cache, number)

	r.logger.Info("cue list deleted", "cue_list", number)
	return nil
}

// DeleteCue removes one cue from a list.
func (r *Registry) DeleteCue(ctx context.Context, listNumber, cueNumber int) error {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	cached, ok := r.cache[listNumber]
	if !ok {
		return fmt.Errorf("%w: %d", ErrCueListNotFound, listNumber)
	}
	list := cached.Clone()
	if !list.RemoveCue(cueNumber) {
		return fmt.Errorf("%w: %d/%d", ErrCueNotFound, listNumber, cueNumber)
	}

	if err := r.repo.Save(ctx, list); err != nil {
		return err
	}
	r.cache[listNumber] = list

	r.logger.Info("cue deleted", "cue_list", listNumber, "cue", cueNumber)
	return nil
}

// Import decodes a cue list document and saves it.
func (r *Registry) Import(ctx context.Context, document []byte) (*cue.CueList, error) {
	list, err := cue.DecodeCueList(document)
	if err != nil {
		return nil, err
	}
	if err := r.SaveCueList(ctx, list); err != nil {
		return nil, err
	}
	return list.Clone(), nil
}

// CueListCount returns the number of cached cue lists.
func (r *Registry) CueListCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

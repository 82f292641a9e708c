// Package show stores the desk's cue lists.
//
// A show is the set of cue lists programmed on the desk. Cue lists are
// persisted in SQLite as exchange documents (see cue.EncodeCueList) and
// cached in memory so that playback lookups never touch the database.
//
// # Architecture
//
//	┌──────────────┐   GetCue    ┌──────────────┐
//	│   playback   │────────────▶│   Registry   │  RWMutex cache of deep copies
//	│   api        │  Save/Delete│              │
//	└──────────────┘────────────▶└──────┬───────┘
//	                                    │ Repository
//	                             ┌──────▼───────┐
//	                             │ SQLite       │  cue_lists(number, document)
//	                             └──────────────┘
//
// # Thread Safety
//
// Registry is safe for concurrent use. Every value it returns is a deep copy;
// callers may modify results freely without affecting the cache.
//
// # Usage
//
//	repo := show.NewSQLiteRepository(db.DB)
//	reg := show.NewRegistry(repo)
//	if err := reg.RefreshCache(ctx); err != nil {
//	    return err
//	}
//	c, err := reg.GetCue(ctx, 1, 5)
package show

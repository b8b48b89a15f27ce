package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/woozymasta/borderline/internal/processor"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const watchDebounce = 250 * time.Millisecond

// Watcher reloads file-backed datasets when their source file changes.
type Watcher struct {
	srv     *ServerContext
	sources map[string][]string // absolute source path -> dataset names
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher watches the directories of every local dataset source.
// Remote sources are ignored.
func NewWatcher(s *ServerContext) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		srv:     s,
		sources: make(map[string][]string),
		watcher: fw,
		done:    make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, ds := range s.Config.Datasets {
		if processor.IsRemote(ds.Source) {
			continue
		}
		abs, err := filepath.Abs(ds.Source)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		w.sources[abs] = append(w.sources[abs], ds.Name)
		dirs[filepath.Dir(abs)] = true
	}

	// Watch directories so editors that replace files by rename are seen.
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
		log.Debug().Str("dir", dir).Msg("Watching dataset directory")
	}

	return w, nil
}

// Watched returns the number of watched source files.
func (w *Watcher) Watched() int {
	return len(w.sources)
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if _, tracked := w.sources[filepath.Clean(event.Name)]; !tracked {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending[filepath.Clean(event.Name)] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) < watchDebounce {
					continue
				}
				delete(pending, file)
				w.reload(ctx, file)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Watcher error")
		}
	}
}

// Close stops the underlying watcher. Run returns once its event
// channels are drained.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Done is closed when Run returns.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) reload(ctx context.Context, file string) {
	for _, name := range w.sources[file] {
		if err := w.srv.Reload(ctx, name); err != nil {
			log.Warn().
				Err(err).
				Str("dataset", name).
				Str("path", file).
				Msg("Dataset reload failed, keeping previous data")
		}
	}
}

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kellerblick/storefront/internal/domain"
	"github.com/kellerblick/storefront/internal/search"
)

// watchSettleDelay collapses the burst of events an editor save produces.
const watchSettleDelay = 150 * time.Millisecond

// FileOptions configures a FileGateway.
type FileOptions struct {
	Path    string
	Latency time.Duration // cosmetic delay added to every fetch
}

// FileGateway serves the catalog from a local JSON document. Wines are
// indexed in a search.CatalogIndex for filtering and facets.
type FileGateway struct {
	opts    FileOptions
	decoder *Decoder
	index   *search.CatalogIndex
	logger  *slog.Logger

	reloadMu sync.Mutex // serializes Reload

	// mu guards the index together with wines and events, so a search never
	// resolves ids against a different catalog generation.
	mu     sync.RWMutex
	wines  map[string]domain.Wine
	events []domain.Event
}

var (
	_ Gateway       = (*FileGateway)(nil)
	_ HealthChecker = (*FileGateway)(nil)
)

// NewFileGateway loads the catalog at opts.Path.
func NewFileGateway(opts FileOptions, decoder *Decoder, index *search.CatalogIndex, logger *slog.Logger) (*FileGateway, error) {
	g := &FileGateway{
		opts:    opts,
		decoder: decoder,
		index:   index,
		logger:  logger,
	}
	if err := g.Reload(); err != nil {
		return nil, err
	}
	return g, nil
}

// Reload re-reads the catalog file. On failure the previous catalog stays in place.
func (g *FileGateway) Reload() error {
	g.reloadMu.Lock()
	defer g.reloadMu.Unlock()

	data, err := os.ReadFile(g.opts.Path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	cat, err := g.decoder.DecodeCatalog(data)
	if err != nil {
		return fmt.Errorf("decode catalog %s: %w", g.opts.Path, err)
	}

	wines := make(map[string]domain.Wine, len(cat.Wines))
	for _, w := range cat.Wines {
		wines[w.ID] = w
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.index.Replace(cat.Wines); err != nil {
		return fmt.Errorf("index catalog: %w", err)
	}
	g.wines = wines
	g.events = cat.Events

	g.logger.Info("catalog loaded", "path", g.opts.Path, "wines", len(cat.Wines), "events", len(cat.Events))
	return nil
}

// FetchProducts returns one page of wines matching params.
func (g *FileGateway) FetchProducts(ctx context.Context, params domain.ProductParams) (*domain.Page[domain.Wine], error) {
	if err := g.simulateLatency(ctx); err != nil {
		return nil, err
	}

	p := params.Normalize()

	g.mu.RLock()
	res, err := g.index.Search(ctx, p.Filter(), p.Page, p.Limit)
	if err != nil {
		g.mu.RUnlock()
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	content := make([]domain.Wine, 0, len(res.IDs))
	for _, id := range res.IDs {
		if w, ok := g.wines[id]; ok {
			content = append(content, w)
		}
	}
	g.mu.RUnlock()

	return &domain.Page[domain.Wine]{
		Content: content,
		Meta: domain.PageMeta{
			Page:    p.Page,
			Limit:   p.Limit,
			Total:   res.Total,
			HasMore: p.Page*p.Limit < res.Total,
		},
	}, nil
}

// FetchEvents returns every event in file order.
func (g *FileGateway) FetchEvents(ctx context.Context) ([]domain.Event, error) {
	if err := g.simulateLatency(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.events), nil
}

// FetchProductFacets counts filter options among the wines matching params.
func (g *FileGateway) FetchProductFacets(ctx context.Context, params domain.ProductParams) (*domain.FacetSummary, error) {
	if err := g.simulateLatency(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	facets, err := g.index.Facets(ctx, params.Normalize().Filter())
	g.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("facet catalog: %w", err)
	}
	return facets, nil
}

// Health reports whether the catalog file is readable.
func (g *FileGateway) Health(_ context.Context) error {
	_, err := os.Stat(g.opts.Path)
	return err
}

// Watch reloads the catalog whenever the file changes and calls onChange after
// each successful reload. It blocks until ctx is done.
func (g *FileGateway) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directory: editors replace files via rename.
	path := filepath.Clean(g.opts.Path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	g.logger.Info("watching catalog", "path", path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	reload := func() {
		if err := g.Reload(); err != nil {
			g.logger.Error("catalog reload failed, keeping previous catalog", "error", err)
			return
		}
		if onChange != nil {
			onChange()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchSettleDelay, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.logger.Warn("catalog watcher error", "error", err)
		}
	}
}

func (g *FileGateway) simulateLatency(ctx context.Context) error {
	if g.opts.Latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(g.opts.Latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

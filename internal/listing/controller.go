// Package listing holds the product listing state machine: pagination,
// debounced search, client-side filtering and sorting, and publication of
// immutable state snapshots.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sefaaycicek/fakestore/internal/catalog"
	"github.com/sefaaycicek/fakestore/internal/domain"
)

var (
	// ErrClosed is returned by operations on a closed Controller.
	ErrClosed = errors.New("listing: controller closed")

	// ErrInvalidSort is returned by SetSort for an unknown sort.
	ErrInvalidSort = errors.New("listing: invalid sort")
)

// Catalog is the page source the Controller reads from.
type Catalog interface {
	FetchPage(ctx context.Context, limit, skip int) (*domain.PageResult, error)
	SearchPage(ctx context.Context, query string, limit, skip int) (*domain.PageResult, error)
}

// Annotator supplies favorite and basket flags for product IDs. IDs missing
// from the returned map keep their current annotation.
type Annotator interface {
	Annotations(ctx context.Context, ids []int) (map[int]domain.Annotation, error)
}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	PageSize    int
	QuietPeriod time.Duration
	Annotator   Annotator
	Logger      *slog.Logger

	// OnSearchCommitted, when set, is called with every committed query
	// before its fetch starts. It must not block.
	OnSearchCommitted func(ctx context.Context, query string)
}

// Controller owns the listing state of one screen. All methods are safe for
// concurrent use. Catalog calls are made without holding the state lock.
type Controller struct {
	catalog   Catalog
	annotator Annotator
	logger    *slog.Logger
	debouncer *Debouncer
	onCommit  func(ctx context.Context, query string)

	base context.Context
	stop context.CancelFunc

	mu          sync.Mutex
	cursor      *Cursor
	cache       *Cache
	filter      domain.FilterSpec
	sort        domain.SortSpec
	query       string
	generation  uint64
	genCtx      context.Context
	genCancel   context.CancelFunc
	fetchSeq    uint64
	activeFetch uint64
	loaded      bool
	phase       domain.Phase
	lastErr     *domain.ListingError
	total       *int
	display     []domain.Product
	version     uint64
	state       domain.ListingState
	subs        map[chan domain.ListingState]struct{}
	notices     chan domain.Notification
	closed      bool
}

// NewController returns an idle controller with an empty cache. Call
// LoadInitial to fetch the first page and Close to release it.
func NewController(cat Catalog, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	quiet := opts.QuietPeriod
	if quiet == 0 {
		quiet = DefaultQuietPeriod
	}

	base, stop := context.WithCancel(context.Background())
	c := &Controller{
		catalog:   cat,
		annotator: opts.Annotator,
		logger:    logger,
		onCommit:  opts.OnSearchCommitted,
		debouncer: NewDebouncer(base, quiet),
		base:      base,
		stop:      stop,
		cursor:    NewCursor(opts.PageSize),
		cache:     NewCache(),
		subs:      make(map[chan domain.ListingState]struct{}),
		notices:   make(chan domain.Notification),
	}
	c.genCtx, c.genCancel = context.WithCancel(base)
	c.publishLocked()
	return c
}

// fetchRequest captures everything a fetch needs so that it can run with the
// state lock released.
type fetchRequest struct {
	id         uint64
	generation uint64
	genCtx     context.Context
	endpoint   string
	query      string
	limit      int
	skip       int
	advanced   bool
	// commit marks a fetch started by a debounced search commit. Its ctx is
	// cancelled when newer text supersedes it.
	commit bool
}

// LoadInitial fetches the first page of the current query context. It does
// nothing when products are already cached or a fetch is in flight.
// Fetch failures are reported through the state, not the returned error.
func (c *Controller) LoadInitial(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.cache.Len() > 0 || c.loadingLocked() {
		c.mu.Unlock()
		return nil
	}
	req := c.beginFetchLocked(false)
	c.mu.Unlock()

	c.runFetch(ctx, req)
	return nil
}

// LoadNextPage fetches the page after the last one received. It does nothing
// before the first page has arrived, once the cursor is exhausted, or while
// a fetch is in flight.
func (c *Controller) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.loaded || c.loadingLocked() || c.cursor.IsExhausted() {
		c.mu.Unlock()
		return nil
	}
	req := c.beginFetchLocked(true)
	c.mu.Unlock()

	c.runFetch(ctx, req)
	return nil
}

// Search submits search text. The text is committed once the quiet period
// passes without another Search; empty text commits at once.
func (c *Controller) Search(text string) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	c.debouncer.Submit(text, c.commitSearch)
	return nil
}

// commitSearch runs on the debouncer's goroutine. Empty text and text that
// differs from the committed query start a new query context; repeating the
// committed query fetches at the current offset.
func (c *Controller) commitSearch(ctx context.Context, text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	searchesCommittedTotal.Inc()

	if text == "" || text != c.query {
		c.resetLocked()
		c.query = text
	} else if c.loadingLocked() {
		c.mu.Unlock()
		return
	}
	req := c.beginFetchLocked(false)
	req.commit = true
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "search committed",
		slog.String("query", text),
		slog.Uint64("generation", req.generation),
	)
	if c.onCommit != nil {
		c.onCommit(ctx, text)
	}
	c.runFetch(ctx, req)
}

// ApplyFilter replaces the filter and recomputes the display from the cache.
func (c *Controller) ApplyFilter(filter domain.FilterSpec) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.filter = filter.Clone()
	c.recomputeLocked()
	c.publishLocked()
	return nil
}

// SetSort replaces the sort and recomputes the display from the cache.
func (c *Controller) SetSort(sort domain.SortSpec) error {
	if !sort.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSort, int(sort))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.sort = sort
	c.recomputeLocked()
	c.publishLocked()
	return nil
}

// RefreshAnnotations re-reads favorite and basket flags for every cached
// product and republishes.
func (c *Controller) RefreshAnnotations(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.annotator == nil {
		c.mu.Unlock()
		return nil
	}
	ids := uniqueIDs(c.cache.Snapshot())
	gen := c.generation
	c.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	ann, err := c.annotator.Annotations(ctx, ids)
	if err != nil {
		return fmt.Errorf("refresh annotations: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation {
		return nil
	}
	c.cache.Annotate(func(p domain.Product) domain.Product {
		if a, ok := ann[p.ID]; ok {
			return p.Annotate(a)
		}
		return p
	})
	c.recomputeLocked()
	c.publishLocked()
	return nil
}

// State returns the latest snapshot.
func (c *Controller) State() domain.ListingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation returns the current query context generation.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Subscribe returns a channel that always holds the latest snapshot; older
// undelivered snapshots are replaced. The current state is delivered
// immediately. The channel is closed by the returned cancel func or Close.
func (c *Controller) Subscribe() (<-chan domain.ListingState, func()) {
	ch := make(chan domain.ListingState, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	ch <- c.state
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[ch]; ok {
				delete(c.subs, ch)
				close(ch)
			}
		})
	}
}

// Notifications returns the one-shot notification channel. A notification is
// handed to at most one receiver that is waiting when it is emitted and is
// dropped when none is. The channel is closed by Close.
func (c *Controller) Notifications() <-chan domain.Notification {
	return c.notices
}

// Close cancels pending searches and in-flight fetches, closes subscriber
// channels and waits for outstanding search commits to return.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.genCancel()
	c.stop()
	for ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	close(c.notices)
	c.mu.Unlock()

	c.debouncer.Close()
}

func (c *Controller) loadingLocked() bool {
	return c.activeFetch != 0
}

// resetLocked starts a new query context: pagination, cache, filter and sort
// return to their defaults and in-flight fetches are cancelled.
func (c *Controller) resetLocked() {
	c.generation++
	c.genCancel()
	c.genCtx, c.genCancel = context.WithCancel(c.base)

	c.activeFetch = 0
	c.loaded = false
	c.cursor.Reset()
	c.cache.Clear()
	c.filter = domain.FilterSpec{}
	c.sort = domain.SortRecommended
	c.total = nil
	c.lastErr = nil
	c.phase = domain.PhaseIdle
	c.display = nil
}

func (c *Controller) beginFetchLocked(advance bool) fetchRequest {
	if advance {
		c.cursor.Advance()
	}
	endpoint := endpointListing
	if c.query != "" {
		endpoint = endpointSearch
	}

	c.fetchSeq++
	c.activeFetch = c.fetchSeq
	c.phase = domain.PhaseLoading
	c.publishLocked()

	return fetchRequest{
		id:         c.fetchSeq,
		generation: c.generation,
		genCtx:     c.genCtx,
		endpoint:   endpoint,
		query:      c.query,
		limit:      c.cursor.PageSize(),
		skip:       c.cursor.Skip(),
		advanced:   advance,
	}
}

func (c *Controller) runFetch(parent context.Context, req fetchRequest) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stopAfter := context.AfterFunc(req.genCtx, cancel)
	defer stopAfter()

	start := time.Now()
	var (
		page *domain.PageResult
		err  error
	)
	if req.endpoint == endpointSearch {
		page, err = c.catalog.SearchPage(ctx, req.query, req.limit, req.skip)
	} else {
		page, err = c.catalog.FetchPage(ctx, req.limit, req.skip)
	}
	fetchDuration.WithLabelValues(req.endpoint).Observe(time.Since(start).Seconds())

	if err == nil && c.annotator != nil && len(page.Products) > 0 {
		c.annotate(ctx, page.Products)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || req.generation != c.generation || req.id != c.activeFetch {
		staleResultsTotal.Inc()
		fetchesTotal.WithLabelValues(req.endpoint, outcomeStale).Inc()
		c.logger.DebugContext(ctx, "discarding superseded fetch result",
			slog.String("endpoint", req.endpoint),
			slog.Uint64("generation", req.generation),
			slog.Int("skip", req.skip),
		)
		return
	}
	c.activeFetch = 0

	if err != nil {
		if req.advanced {
			c.cursor.Rewind()
		}
		if errors.Is(err, context.Canceled) {
			fetchesTotal.WithLabelValues(req.endpoint, outcomeCancelled).Inc()
			c.phase = domain.PhaseIdle
			// A superseded commit stays silent until the newer text commits
			// and publishes its own loading state.
			if req.commit && parent.Err() != nil {
				return
			}
			c.publishLocked()
			return
		}

		fetchesTotal.WithLabelValues(req.endpoint, outcomeError).Inc()
		c.lastErr = toListingError(err)
		c.phase = domain.PhaseError
		c.publishLocked()
		c.notifyLocked(domain.Notification{Kind: domain.NotifyError, Message: c.lastErr.Message})
		c.logger.WarnContext(ctx, "catalog fetch failed",
			slog.String("endpoint", req.endpoint),
			slog.String("query", req.query),
			slog.Int("skip", req.skip),
			slog.String("error", err.Error()),
		)
		return
	}

	fetchesTotal.WithLabelValues(req.endpoint, outcomeSuccess).Inc()
	c.cursor.Record(page)
	total := page.Total
	c.total = &total
	c.cache.Append(page.Products...)
	c.loaded = true
	c.lastErr = nil
	c.phase = domain.PhaseSuccess
	c.recomputeLocked()
	c.publishLocked()
}

// annotate applies annotations in place. Failures leave products unannotated.
func (c *Controller) annotate(ctx context.Context, products []domain.Product) {
	ann, err := c.annotator.Annotations(ctx, uniqueIDs(products))
	if err != nil {
		if ctx.Err() == nil {
			c.logger.WarnContext(ctx, "failed to annotate products",
				slog.Int("count", len(products)),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	for i := range products {
		if a, ok := ann[products[i].ID]; ok {
			products[i] = products[i].Annotate(a)
		}
	}
}

func (c *Controller) recomputeLocked() {
	c.display = Apply(c.cache.Snapshot(), c.filter, c.sort)
}

func (c *Controller) publishLocked() {
	c.version++

	var total *int
	if c.total != nil {
		t := *c.total
		total = &t
	}
	display := c.display
	if display == nil {
		display = []domain.Product{}
	}

	c.state = domain.ListingState{
		Products:    display,
		Total:       total,
		Filter:      c.filter.Clone(),
		Sort:        c.sort,
		Query:       c.query,
		Loading:     c.phase == domain.PhaseLoading,
		Phase:       c.phase,
		Err:         c.lastErr,
		CanPaginate: c.loaded && !c.cursor.IsExhausted(),
		Version:     c.version,
		Accumulated: c.cache.Len(),
	}

	for ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c.state:
		default:
		}
	}
}

func (c *Controller) notifyLocked(n domain.Notification) {
	if c.closed {
		return
	}
	select {
	case c.notices <- n:
	default:
	}
}

func toListingError(err error) *domain.ListingError {
	var ce *catalog.Error
	if errors.As(err, &ce) {
		kind := domain.ErrorUnknown
		switch ce.Kind {
		case catalog.KindNetwork:
			kind = domain.ErrorNetwork
		case catalog.KindDecoding:
			kind = domain.ErrorDecoding
		}
		return &domain.ListingError{Kind: kind, Message: ce.Message}
	}
	return &domain.ListingError{Kind: domain.ErrorUnknown, Message: "something went wrong while loading products"}
}

func uniqueIDs(products []domain.Product) []int {
	seen := make(map[int]struct{}, len(products))
	ids := make([]int, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}
	return ids
}

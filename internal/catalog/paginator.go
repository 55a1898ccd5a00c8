package catalog

import (
	"context"
	"errors"
	"sync"

	"cleat-store/internal/domain"

	"go.uber.org/zap"
)

var (
	ErrFetchInFlight = errors.New("a product fetch is already in progress")
)

// LoadErrorMessage is the error shown to shoppers when a page cannot be loaded
const LoadErrorMessage = "failed to load products"

// Snapshot is a copy of the paginator state
type Snapshot struct {
	Products []domain.Product `json:"products"`
	Loading  bool             `json:"loading"`
	Error    string           `json:"error,omitempty"`
	HasMore  bool             `json:"has_more"`
	Cursor   string           `json:"cursor,omitempty"`
}

// Paginator accumulates pages of a listing and exposes load-more and
// refresh. It is safe for concurrent use; a second fetch started while one
// is outstanding is refused instead of queued.
type Paginator struct {
	src      Source
	pageSize int
	logger   *zap.Logger

	mu       sync.Mutex
	filters  FilterState
	products []domain.Product
	cursor   string
	hasMore  bool
	loading  bool
	err      string
}

// NewPaginator creates a Paginator reading from src
func NewPaginator(src Source, pageSize int, logger *zap.Logger) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Paginator{
		src:      src,
		pageSize: pageSize,
		logger:   logger,
		filters:  DefaultFilters(),
		hasMore:  true,
	}
}

// LoadPage fetches one page for filters. With reset the accumulated
// products are replaced and the cursor is ignored; otherwise the page is
// appended. Filters, cursor and products only change once the page arrives,
// so a failed fetch leaves the listing as it was apart from the error message.
func (p *Paginator) LoadPage(ctx context.Context, filters FilterState, reset bool) error {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return ErrFetchInFlight
	}
	p.loading = true
	p.err = ""
	filters = filters.Normalize()
	cursor := p.cursor
	if reset {
		cursor = ""
	}
	p.mu.Unlock()

	page, err := FetchPage(ctx, p.src, QueryFromFilters(filters), filters.Search, cursor, p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false

	if err != nil {
		p.logger.Error("Failed to load product page",
			zap.Error(err),
			zap.Bool("reset", reset),
		)
		p.err = LoadErrorMessage
		return err
	}

	if reset {
		p.products = append([]domain.Product(nil), page.Products...)
	} else {
		p.products = append(p.products, page.Products...)
	}
	p.filters = filters
	p.cursor = page.Cursor
	p.hasMore = page.HasMore

	p.logger.Debug("Loaded product page",
		zap.Int("page_items", len(page.Products)),
		zap.Int("total_items", len(p.products)),
		zap.Bool("has_more", p.hasMore),
	)
	return nil
}

// LoadMore appends the next page using the current filters. It does nothing
// while a fetch is outstanding or once the listing is exhausted.
func (p *Paginator) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	if p.loading || !p.hasMore {
		p.mu.Unlock()
		return nil
	}
	filters := p.filters
	p.mu.Unlock()

	err := p.LoadPage(ctx, filters, false)
	if errors.Is(err, ErrFetchInFlight) {
		return nil
	}
	return err
}

// Refresh reloads the first page under the current filters
func (p *Paginator) Refresh(ctx context.Context) error {
	p.mu.Lock()
	filters := p.filters
	p.mu.Unlock()

	return p.LoadPage(ctx, filters, true)
}

// Snapshot returns a copy of the current state
func (p *Paginator) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Products: append([]domain.Product(nil), p.products...),
		Loading:  p.loading,
		Error:    p.err,
		HasMore:  p.hasMore,
		Cursor:   p.cursor,
	}
}

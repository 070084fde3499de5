package repo

import (
	"context"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/statement"
)

// Pager is a stateful cursor over one find statement. Every page
// request derives a fresh paged statement from the source; the source
// descriptor is never mutated. A Pager is owned by a single call site:
// overlapping Page calls on the same instance are not serialized here.
type Pager[T any] struct {
	repo     *Repo[T]
	source   *statement.Statement
	size     int
	current  int
	total    int
	count    int
	bookmark string
}

// Pages prepares pagination over a compiled find statement with the
// given page size. Statements outside the find/page family cannot be
// paginated and fail here, before any request is issued.
func (r *Repo[T]) Pages(st *statement.Statement, size int) (*Pager[T], error) {
	switch st.Kind {
	case statement.KindFind, statement.KindPage:
	default:
		return nil, api.Errorf(api.Unsupported, "statement %q cannot be paginated", st.Token)
	}
	if st.GroupBy != "" {
		return nil, api.Errorf(api.Unsupported, "grouped statement %q cannot be paginated", st.Token)
	}
	if size < 1 {
		return nil, api.Errorf(api.Paging, "page size must be positive, got %d", size)
	}
	return &Pager[T]{repo: r, source: st.Clone(), size: size}, nil
}

// Page fetches page n (1-based). Offsets are 1-based: page n starts at
// record (n-1)*size+1. Records come back in the backend's order for
// the statement's order clause; the client never re-sorts.
func (p *Pager[T]) Page(ctx context.Context, n int) ([]T, error) {
	if n < 1 {
		return nil, api.Errorf(api.Paging, "page numbers start at 1, got %d", n)
	}

	st, err := p.source.Paged(p.size, (n-1)*p.size+1)
	if err != nil {
		return nil, err
	}
	if p.bookmark != "" {
		st = st.WithParam("bookmark", p.bookmark)
	}

	out, err := p.repo.submit(ctx, p.repo.b.Statement(p.repo.meta, st), OpPage)
	if err != nil {
		return nil, err
	}
	pg := out.(*page[T])

	p.current = n
	p.total = pg.total
	p.count = pg.count
	return pg.items, nil
}

// Next fetches the page after the last one returned. On a fresh pager
// that is page 1. Exhaustion shows up as an empty slice.
func (p *Pager[T]) Next(ctx context.Context) ([]T, error) {
	return p.Page(ctx, p.current+1)
}

// Current returns the last fetched page number, 0 before any fetch.
func (p *Pager[T]) Current() int { return p.current }

// Total returns the backend's total record count from the last
// envelope.
func (p *Pager[T]) Total() int { return p.total }

// Count returns the record count of the last fetched page.
func (p *Pager[T]) Count() int { return p.count }

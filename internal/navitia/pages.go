package navitia

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	appLog "idfmcal/internal/log"
)

const (
	// DefaultPageSize is the count requested per page. Large on purpose:
	// collections run to a few thousand items at most.
	DefaultPageSize = 1000
	// MaxPages is a safety valve against runaway pagination, not a
	// normal termination path.
	MaxPages = 200
)

// Pagination is the metadata block carried by paged responses.
type Pagination struct {
	ItemsPerPage int `json:"items_per_page"`
	ItemsOnPage  int `json:"items_on_page"`
	StartPage    int `json:"start_page"`
	TotalResult  int `json:"total_result"`
}

// ResponseContext carries the coverage timezone and the current time as
// seen by the API.
type ResponseContext struct {
	Timezone        string `json:"timezone"`
	CurrentDateTime string `json:"current_datetime"`
}

// Collection is the accumulated result of paging through one endpoint.
// Disruptions are collected across pages without deduplication; the
// last-seen context wins.
type Collection[T any] struct {
	Items       []T
	Disruptions []Disruption
	Context     ResponseContext
}

// pageState classifies what to do after consuming one page. The three
// stop conditions carry different trust levels, so they are named
// rather than folded into one boolean.
type pageState int

const (
	// pageContinuing: a full page, more expected.
	pageContinuing pageState = iota
	// pageExhausted: no pagination metadata, or an empty page despite
	// what the metadata claims. Upstream inconsistency is tolerated
	// here; what was accumulated is the result.
	pageExhausted
	// pageShortLast: items_on_page < items_per_page, the declared last
	// page. The accumulated count must cover total_result.
	pageShortLast
)

func classifyPage(p *Pagination, itemsOnPage int) pageState {
	switch {
	case p == nil:
		return pageExhausted
	case itemsOnPage == 0:
		return pageExhausted
	case p.ItemsOnPage < p.ItemsPerPage:
		return pageShortLast
	default:
		return pageContinuing
	}
}

type pageEnvelope struct {
	Pagination  *Pagination      `json:"pagination"`
	Context     *ResponseContext `json:"context"`
	Disruptions []Disruption     `json:"disruptions"`
}

// FetchAll drives the client across every page of a collection, reading
// the items from the field named field in each response envelope.
func FetchAll[T any](ctx context.Context, c *Client, path, field string) (Collection[T], error) {
	var out Collection[T]
	declaredTotal := 0

	for page := 0; ; page++ {
		if page >= MaxPages {
			return out, errors.Errorf(
				"pagination limit reached: %d pages for %s (fetched %d, expected %d)",
				MaxPages, path, len(out.Items), declaredTotal)
		}

		raw, err := c.Get(ctx, path, &Paging{StartPage: page, Count: DefaultPageSize})
		if err != nil {
			return out, err
		}

		var env pageEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return out, errors.Wrapf(err, "decode %s page %d", path, page)
		}
		items, err := itemsAt[T](raw, field)
		if err != nil {
			return out, errors.Wrapf(err, "decode %s page %d", path, page)
		}

		out.Items = append(out.Items, items...)
		out.Disruptions = append(out.Disruptions, env.Disruptions...)
		if env.Context != nil {
			out.Context = *env.Context
		}
		if env.Pagination != nil {
			declaredTotal = env.Pagination.TotalResult
		}

		switch classifyPage(env.Pagination, len(items)) {
		case pageExhausted:
			appLog.Info("collection fetched", "path", path, "items", len(out.Items), "pages", page+1)
			return out, nil

		case pageShortLast:
			if len(out.Items) < declaredTotal {
				return out, errors.Errorf(
					"unexpected short page for %s: got %d items but expected %d (page %d, %d/%d items)",
					path, len(out.Items), declaredTotal, page,
					env.Pagination.ItemsOnPage, env.Pagination.ItemsPerPage)
			}
			appLog.Info("collection fetched", "path", path, "items", len(out.Items), "pages", page+1, "total", declaredTotal)
			return out, nil
		}
	}
}

// itemsAt extracts and decodes the item array stored at the named field
// of the envelope. A missing field decodes as an empty page.
func itemsAt[T any](raw json.RawMessage, field string) ([]T, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	itemsRaw, ok := fields[field]
	if !ok {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(itemsRaw, &items); err != nil {
		return nil, errors.Wrapf(err, "field %q", field)
	}
	return items, nil
}

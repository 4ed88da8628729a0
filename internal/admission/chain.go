package admission

import (
	"log/slog"
	"net/http"
	"sort"
)

// Filter is one step of the admission pipeline, pure over the request
// snapshot. Filters run in ascending Order; the most negative runs first.
type Filter interface {
	Name() string
	Order() int
	Apply(req *RequestContext) Outcome
}

// Chain runs filters in order with short-circuit semantics: the first halt
// wins and nothing after it executes. A chain runs at most once per
// request; there is no filter retry.
type Chain struct {
	filters []Filter
	logger  *slog.Logger
}

// NewChain creates a chain over the given filters, sorted by Order.
func NewChain(logger *slog.Logger, filters ...Filter) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	sorted := make([]Filter, len(filters))
	copy(sorted, filters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return &Chain{filters: sorted, logger: logger}
}

// Admit runs the chain over the snapshot. On continue the outcome carries
// the merged header additions of all filters; on halt it carries the
// terminal status and message. A panicking filter fails closed: the request
// is halted with 500 and the fault is logged, never forwarded.
func (c *Chain) Admit(req *RequestContext) (out Outcome) {
	var current string

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("filter fault, failing closed",
				slog.String("filter", current),
				slog.String("path", req.Path),
				slog.Any("panic", r),
			)
			out = Halt(http.StatusInternalServerError, "internal gateway error")
		}
	}()

	merged := make(map[string]string)
	for _, f := range c.filters {
		current = f.Name()

		res := f.Apply(req)
		if res.Halted() {
			return res
		}
		if len(res.Headers) > 0 {
			// Later filters observe what earlier filters injected.
			req = req.WithHeaders(res.Headers)
			for k, v := range res.Headers {
				merged[k] = v
			}
		}
	}

	return ContinueWith(merged)
}

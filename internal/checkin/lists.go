package checkin

import (
	"context"

	"github.com/fossasia/eventyay-checkin/internal/eventyay"
)

// ListSource returns the check-in lists of the current event.
type ListSource interface {
	CheckinLists(ctx context.Context) ([]eventyay.CheckinList, error)
}

// Resolver turns the event's check-in lists into the id set a
// redemption is validated against.
type Resolver struct {
	src ListSource
}

func NewResolver(src ListSource) *Resolver {
	return &Resolver{src: src}
}

// Resolve performs one request and returns every list id as a string, in
// server order. Failures are *TransportError and must abort the attempt.
func (r *Resolver) Resolve(ctx context.Context) ([]string, error) {
	lists, err := r.src.CheckinLists(ctx)
	if err != nil {
		return nil, &TransportError{Op: "resolve check-in lists", Err: err}
	}
	ids := make([]string, 0, len(lists))
	for _, l := range lists {
		ids = append(ids, l.ID.String())
	}
	return ids, nil
}

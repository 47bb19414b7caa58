package sanitizer

import (
	"time"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

const (
	// DefaultRecencyWindow is the look-back window of the recency strategy.
	DefaultRecencyWindow = 48 * time.Hour

	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// RecencyFilter builds the "created or modified within the window" filter of a collection.
type RecencyFilter struct {
	window time.Duration
}

// NewRecencyFilter creates a RecencyFilter. The window must be positive.
func NewRecencyFilter(window time.Duration) (*RecencyFilter, error) {
	if window <= 0 {
		return nil, ErrInvalidRecencyWindow
	}

	return &RecencyFilter{window: window}, nil
}

func (r *RecencyFilter) Window() time.Duration {
	return r.window
}

// Filter matches documents with createdAt or updatedAt in [now-window, now], or with an identifier minted
// at or after now-window by the given scheme. A nil scheme disables the identifier criterion.
// Protected documents never match.
func (r *RecencyFilter) Filter(descriptor CollectionDescriptor, scheme docstore.IDScheme, now time.Time) docstore.Filter {
	since := now.Add(-r.window)

	builder := docstore.BuildFilter().
		Matching(docstore.TimeBetween(FieldCreatedAt, since, now)).
		OrMatching(docstore.TimeBetween(FieldUpdatedAt, since, now))

	if scheme != nil {
		builder = builder.OrMatching(docstore.MintedSince(scheme, since))
	}

	if role, ok := descriptor.ProtectedRole(); ok {
		builder = builder.ExcludingMatches(role.Condition())
	}

	return builder.Finalize()
}

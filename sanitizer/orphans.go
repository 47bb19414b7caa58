package sanitizer

import (
	"context"
	"errors"
	"slices"

	"github.com/hashicorp/go-set/v2"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

// ValidIDSet holds the canonical identifiers of one parent collection. It lives for one orphan sweep.
type ValidIDSet = *set.Set[string]

// OrphanDetector builds "references a non-existent parent" filters and caches parent identifiers per sweep.
type OrphanDetector struct {
	store    docstore.Store
	validIDs map[string]ValidIDSet
}

// NewOrphanDetector creates an OrphanDetector for one sweep.
func NewOrphanDetector(store docstore.Store) *OrphanDetector {
	return &OrphanDetector{
		store:    store,
		validIDs: make(map[string]ValidIDSet),
	}
}

// ValidIDs returns the identifiers of the parent collection, fetching them on first use.
// A parent collection that does not exist yields an empty set, so every reference to it is an orphan.
func (d *OrphanDetector) ValidIDs(ctx context.Context, parent string) (ValidIDSet, error) {
	if ids, ok := d.validIDs[parent]; ok {
		return ids, nil
	}

	raw, err := d.store.IDs(ctx, parent)
	if err != nil && !errors.Is(err, docstore.ErrCollectionNotFound) {
		return nil, err
	}

	ids := set.From[string](raw)
	d.validIDs[parent] = ids

	return ids, nil
}

// Invalidate drops the cached identifiers of a parent that lost documents.
func (d *OrphanDetector) Invalidate(parent string) {
	delete(d.validIDs, parent)
}

// Filter returns one filter covering every relation of the dependent collection:
// the reference is absent, null, or not an identifier of the parent. Protected documents are excluded.
func (d *OrphanDetector) Filter(ctx context.Context, descriptor CollectionDescriptor, dependent DependentCollection) (docstore.Filter, error) {
	conditions := make([]docstore.Condition, 0, 3*len(dependent.Relations))

	for _, relation := range dependent.Relations {
		ids, err := d.ValidIDs(ctx, relation.Parent)
		if err != nil {
			return docstore.Filter{}, err
		}

		conditions = append(conditions,
			docstore.Absent(relation.Field),
			docstore.Null(relation.Field),
			docstore.NotIn(relation.Field, sortedIDs(ids)),
		)
	}

	if len(conditions) == 0 {
		return docstore.BuildFilter().Matching(docstore.Or()).Finalize(), nil
	}

	builder := docstore.BuildFilter().Matching(conditions[0])
	for _, c := range conditions[1:] {
		builder = builder.OrMatching(c)
	}

	if role, ok := descriptor.ProtectedRole(); ok {
		builder = builder.ExcludingMatches(role.Condition())
	}

	return builder.Finalize(), nil
}

func sortedIDs(ids ValidIDSet) []string {
	sorted := ids.Slice()
	slices.Sort(sorted)

	return sorted
}

package sanitizer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-set/v2"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

// Collection names of the shop domain.
const (
	CollectionUsers           = "users"
	CollectionProducts        = "products"
	CollectionCategories      = "categories"
	CollectionProductVariants = "productVariants"
	CollectionReviews         = "reviews"
	CollectionWishlists       = "wishlists"
	CollectionOrders          = "orders"
	CollectionAddresses       = "addresses"

	FieldRole       = "role"
	RoleAdmin       = "admin"
	FieldEmail      = "email"
	FieldUserID     = "userId"
	FieldProductID  = "productId"
	FieldCategoryID = "categoryId"
)

// RoleRule marks documents holding a protected role, e.g. role == admin.
type RoleRule struct {
	Field string
	Value string
}

// Condition returns the condition matching protected documents.
func (r RoleRule) Condition() docstore.Condition {
	return docstore.Equals(r.Field, r.Value)
}

// CollectionDescriptor describes one target collection. It is immutable.
type CollectionDescriptor struct {
	name                string
	scannableTextFields []string
	emailField          string
	protectedRole       *RoleRule
}

// DescriptorOption configures a CollectionDescriptor.
type DescriptorOption func(*CollectionDescriptor)

// WithScannableTextFields sets the fields eligible for keyword pattern scanning, keeping their order.
// Duplicates are dropped.
func WithScannableTextFields(fields ...string) DescriptorOption {
	return func(d *CollectionDescriptor) {
		for _, f := range fields {
			if f != "" && !slices.Contains(d.scannableTextFields, f) {
				d.scannableTextFields = append(d.scannableTextFields, f)
			}
		}
	}
}

// WithEmailField names the field email patterns and the email allowlist apply to.
func WithEmailField(field string) DescriptorOption {
	return func(d *CollectionDescriptor) {
		d.emailField = field
	}
}

// WithProtectedRole exempts documents with field == value from every safe sweep and from ProtectedBulk.
func WithProtectedRole(field, value string) DescriptorOption {
	return func(d *CollectionDescriptor) {
		d.protectedRole = &RoleRule{Field: field, Value: value}
	}
}

// NewCollectionDescriptor creates a CollectionDescriptor.
func NewCollectionDescriptor(name string, options ...DescriptorOption) CollectionDescriptor {
	d := CollectionDescriptor{name: name}
	for _, option := range options {
		option(&d)
	}

	return d
}

func (d CollectionDescriptor) Name() string {
	return d.name
}

// ScannableTextFields returns a copy of the scannable fields in their declared order.
func (d CollectionDescriptor) ScannableTextFields() []string {
	return slices.Clone(d.scannableTextFields)
}

func (d CollectionDescriptor) EmailField() string {
	return d.emailField
}

// ProtectedRole returns the protection rule, if the collection has one.
func (d CollectionDescriptor) ProtectedRole() (RoleRule, bool) {
	if d.protectedRole == nil {
		return RoleRule{}, false
	}

	return *d.protectedRole, true
}

// OrphanRelation is one (dependent collection, reference field, parent collection) triple.
type OrphanRelation struct {
	Dependent string
	Field     string
	Parent    string
}

func (r OrphanRelation) String() string {
	return fmt.Sprintf("%s.%s -> %s", r.Dependent, r.Field, r.Parent)
}

// DependentCollection groups every relation of one dependent collection, so they are evaluated in one pass.
type DependentCollection struct {
	Name      string
	Relations []OrphanRelation
}

// Parents returns the distinct parent collections in relation order.
func (d DependentCollection) Parents() []string {
	parents := make([]string, 0, len(d.Relations))
	for _, r := range d.Relations {
		if !slices.Contains(parents, r.Parent) {
			parents = append(parents, r.Parent)
		}
	}

	return parents
}

// Registry is the compiled-in configuration of target collections and orphan relations.
type Registry struct {
	descriptors []CollectionDescriptor
	relations   []OrphanRelation
	dependents  []DependentCollection
}

// NewRegistry validates the configuration and derives the orphan sweep order.
// Collection names must be unique and non-empty, relations must reference registered collections,
// and relations between different collections must not form a cycle.
func NewRegistry(descriptors []CollectionDescriptor, relations []OrphanRelation) (Registry, error) {
	names := set.New[string](len(descriptors))

	for _, d := range descriptors {
		if d.name == "" {
			return Registry{}, errors.Join(ErrInvalidRegistry, docstore.ErrEmptyCollectionName)
		}
		if !names.Insert(d.name) {
			return Registry{}, errors.Join(ErrInvalidRegistry, fmt.Errorf("duplicate collection %q", d.name))
		}
	}

	for _, r := range relations {
		if r.Field == "" {
			return Registry{}, errors.Join(ErrInvalidRegistry, fmt.Errorf("relation %s without field", r))
		}
		if !names.Contains(r.Dependent) || !names.Contains(r.Parent) {
			return Registry{}, errors.Join(ErrInvalidRegistry, fmt.Errorf("relation %s references an unknown collection", r))
		}
	}

	dependents, err := orderDependents(descriptors, relations)
	if err != nil {
		return Registry{}, err
	}

	return Registry{
		descriptors: slices.Clone(descriptors),
		relations:   slices.Clone(relations),
		dependents:  dependents,
	}, nil
}

// DefaultRegistry returns the shop collections and their orphan relations.
func DefaultRegistry() Registry {
	registry, err := NewRegistry(
		[]CollectionDescriptor{
			NewCollectionDescriptor(CollectionUsers,
				WithScannableTextFields("name", "firstName", "lastName", FieldEmail),
				WithEmailField(FieldEmail),
				WithProtectedRole(FieldRole, RoleAdmin),
			),
			NewCollectionDescriptor(CollectionProducts,
				WithScannableTextFields("name", "description", "sku"),
			),
			NewCollectionDescriptor(CollectionCategories,
				WithScannableTextFields("name", "description", "slug"),
			),
			NewCollectionDescriptor(CollectionProductVariants,
				WithScannableTextFields("name", "sku"),
			),
			NewCollectionDescriptor(CollectionReviews,
				WithScannableTextFields("title", "comment"),
			),
			NewCollectionDescriptor(CollectionWishlists,
				WithScannableTextFields("name"),
			),
			NewCollectionDescriptor(CollectionOrders,
				WithScannableTextFields("notes", "shippingAddress.fullName"),
				WithEmailField("contactEmail"),
			),
			NewCollectionDescriptor(CollectionAddresses,
				WithScannableTextFields("fullName", "street", "city"),
			),
		},
		[]OrphanRelation{
			{Dependent: CollectionWishlists, Field: FieldProductID, Parent: CollectionProducts},
			{Dependent: CollectionWishlists, Field: FieldUserID, Parent: CollectionUsers},
			{Dependent: CollectionReviews, Field: FieldProductID, Parent: CollectionProducts},
			{Dependent: CollectionReviews, Field: FieldUserID, Parent: CollectionUsers},
			{Dependent: CollectionProductVariants, Field: FieldProductID, Parent: CollectionProducts},
			{Dependent: CollectionOrders, Field: FieldUserID, Parent: CollectionUsers},
			{Dependent: CollectionAddresses, Field: FieldUserID, Parent: CollectionUsers},
			{Dependent: CollectionProducts, Field: FieldCategoryID, Parent: CollectionCategories},
		},
	)
	if err != nil {
		panic(err) // compiled-in configuration
	}

	return registry
}

// Collections returns the descriptors in registration order.
func (r Registry) Collections() []CollectionDescriptor {
	return slices.Clone(r.descriptors)
}

// Names returns the collection names in registration order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		names = append(names, d.name)
	}

	return names
}

// Lookup returns the descriptor of the named collection.
func (r Registry) Lookup(name string) (CollectionDescriptor, bool) {
	for _, d := range r.descriptors {
		if d.name == name {
			return d, true
		}
	}

	return CollectionDescriptor{}, false
}

// Relations returns the orphan relations in declaration order.
func (r Registry) Relations() []OrphanRelation {
	return slices.Clone(r.relations)
}

// Dependents returns the dependent collections in sweep order: a collection that is itself a parent
// of other dependents comes before them. Ties keep registration order.
func (r Registry) Dependents() []DependentCollection {
	dependents := make([]DependentCollection, 0, len(r.dependents))
	for _, d := range r.dependents {
		dependents = append(dependents, DependentCollection{Name: d.Name, Relations: slices.Clone(d.Relations)})
	}

	return dependents
}

// orderDependents groups relations by dependent and sorts the groups topologically.
// Self references do not constrain the order.
func orderDependents(descriptors []CollectionDescriptor, relations []OrphanRelation) ([]DependentCollection, error) {
	grouped := make(map[string][]OrphanRelation)
	for _, r := range relations {
		grouped[r.Dependent] = append(grouped[r.Dependent], r)
	}

	// blockers[x] holds the dependents that must be swept before x, i.e. x's parents which are dependents too.
	blockers := make(map[string]*set.Set[string], len(grouped))
	for name, rels := range grouped {
		blockers[name] = set.New[string](len(rels))
		for _, r := range rels {
			if _, isDependent := grouped[r.Parent]; isDependent && r.Parent != name {
				blockers[name].Insert(r.Parent)
			}
		}
	}

	ordered := make([]DependentCollection, 0, len(grouped))
	done := set.New[string](len(grouped))

	for len(ordered) < len(grouped) {
		progressed := false

		for _, d := range descriptors {
			rels, isDependent := grouped[d.name]
			if !isDependent || done.Contains(d.name) || !containsAll(done, blockers[d.name]) {
				continue
			}

			ordered = append(ordered, DependentCollection{Name: d.name, Relations: rels})
			done.Insert(d.name)
			progressed = true
		}

		if !progressed {
			return nil, errors.Join(ErrInvalidRegistry, errors.New("cyclic orphan relations"))
		}
	}

	return ordered, nil
}

func containsAll(s *set.Set[string], items *set.Set[string]) bool {
	for _, item := range items.Slice() {
		if !s.Contains(item) {
			return false
		}
	}

	return true
}

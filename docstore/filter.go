package docstore

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ConditionKind enumerates the node types of a filter condition tree.
type ConditionKind int

const (
	// MatchAll matches every document.
	MatchAll ConditionKind = iota
	// AnyOf matches if at least one child matches. Without children it matches nothing.
	AnyOf
	// AllOf matches if every child matches.
	AllOf
	// Not matches if its only child does not match.
	Not
	// FieldEquals matches if the field is present and equals the value (canonical string form for ids).
	FieldEquals
	// FieldMatchesPattern matches if the field holds a string matching the (always case-insensitive) pattern.
	FieldMatchesPattern
	// FieldNotIn matches if the field is present, not null, and its canonical id string is not in the values.
	FieldNotIn
	// FieldAbsent matches if the field does not exist.
	FieldAbsent
	// FieldNull matches if the field exists and holds null.
	FieldNull
	// FieldTimeBetween matches if the field holds a timestamp in [from, until], both bounds inclusive.
	FieldTimeBetween
	// IDMintedSince matches if the identifier has the shape of the IDScheme and was minted at or after the instant.
	IDMintedSince
)

var conditionKindNames = map[ConditionKind]string{
	MatchAll:            "matchAll",
	AnyOf:               "anyOf",
	AllOf:               "allOf",
	Not:                 "not",
	FieldEquals:         "equals",
	FieldMatchesPattern: "matches",
	FieldNotIn:          "notIn",
	FieldAbsent:         "absent",
	FieldNull:           "null",
	FieldTimeBetween:    "between",
	IDMintedSince:       "idMintedSince",
}

func (k ConditionKind) String() string {
	if name, ok := conditionKindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("ConditionKind(%d)", int(k))
}

/***** Condition *****/

// Condition is an immutable node of a filter condition tree.
// Store engines translate it into their native query language, the memory engine evaluates it with Matches.
type Condition struct {
	kind     ConditionKind
	field    string
	value    string
	values   []string
	from     time.Time
	until    time.Time
	scheme   IDScheme
	children []Condition
}

func (c Condition) Kind() ConditionKind {
	return c.kind
}

func (c Condition) Field() string {
	return c.field
}

// Value returns the comparison value of FieldEquals or the pattern of FieldMatchesPattern.
func (c Condition) Value() string {
	return c.value
}

// Values returns the excluded values of FieldNotIn.
func (c Condition) Values() []string {
	return c.values
}

// From returns the lower bound of FieldTimeBetween or the instant of IDMintedSince.
func (c Condition) From() time.Time {
	return c.from
}

// Until returns the upper bound of FieldTimeBetween.
func (c Condition) Until() time.Time {
	return c.until
}

func (c Condition) Scheme() IDScheme {
	return c.scheme
}

func (c Condition) Children() []Condition {
	return c.children
}

// Everything matches all documents.
func Everything() Condition {
	return Condition{kind: MatchAll}
}

// Or combines conditions with a logical OR. An Or without conditions matches nothing.
func Or(conditions ...Condition) Condition {
	return Condition{kind: AnyOf, children: conditions}
}

// And combines conditions with a logical AND.
func And(conditions ...Condition) Condition {
	return Condition{kind: AllOf, children: conditions}
}

// Negate inverts a condition.
func Negate(condition Condition) Condition {
	return Condition{kind: Not, children: []Condition{condition}}
}

func Equals(field string, value string) Condition {
	return Condition{kind: FieldEquals, field: field, value: value}
}

// MatchesPattern builds a case-insensitive regular expression condition (RE2 syntax).
func MatchesPattern(field string, pattern string) Condition {
	return Condition{kind: FieldMatchesPattern, field: field, value: pattern}
}

func NotIn(field string, values []string) Condition {
	v := make([]string, len(values))
	copy(v, values)

	return Condition{kind: FieldNotIn, field: field, values: v}
}

func Absent(field string) Condition {
	return Condition{kind: FieldAbsent, field: field}
}

func Null(field string) Condition {
	return Condition{kind: FieldNull, field: field}
}

func TimeBetween(field string, from, until time.Time) Condition {
	return Condition{kind: FieldTimeBetween, field: field, from: from, until: until}
}

func MintedSince(scheme IDScheme, since time.Time) Condition {
	return Condition{kind: IDMintedSince, field: IDField, scheme: scheme, from: since}
}

// Matches evaluates the condition against a document.
// An error is returned for conditions that cannot be evaluated, e.g. an invalid pattern.
func (c Condition) Matches(doc Document) (bool, error) {
	switch c.kind {
	case MatchAll:
		return true, nil

	case AnyOf:
		for _, child := range c.children {
			ok, err := child.Matches(doc)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case AllOf:
		for _, child := range c.children {
			ok, err := child.Matches(doc)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case Not:
		if len(c.children) != 1 {
			return false, ErrInvalidFilter
		}
		ok, err := c.children[0].Matches(doc)
		return !ok, err

	case FieldEquals:
		value, ok := doc.Lookup(c.field)
		if !ok || value == nil {
			return false, nil
		}
		return IDString(value) == c.value, nil

	case FieldMatchesPattern:
		s, ok := doc.StringAt(c.field)
		if !ok {
			return false, nil
		}
		re, err := compilePattern(c.value)
		if err != nil {
			return false, errors.Join(ErrPredicateEvaluationFailed, err)
		}
		return re.MatchString(s), nil

	case FieldNotIn:
		value, ok := doc.Lookup(c.field)
		if !ok || value == nil {
			return false, nil
		}
		id := IDString(value)
		for _, v := range c.values {
			if v == id {
				return false, nil
			}
		}
		return true, nil

	case FieldAbsent:
		return !doc.Has(c.field), nil

	case FieldNull:
		return doc.IsNull(c.field), nil

	case FieldTimeBetween:
		t, ok := doc.TimeAt(c.field)
		if !ok {
			return false, nil
		}
		return !t.Before(c.from) && !t.After(c.until), nil

	case IDMintedSince:
		if c.scheme == nil {
			return false, ErrInvalidFilter
		}
		minted, ok := c.scheme.Timestamp(doc.ID())
		if !ok {
			return false, nil
		}
		return !minted.Before(c.from.Truncate(c.scheme.Precision())), nil

	default:
		return false, ErrInvalidFilter
	}
}

// Validate checks field names and patterns of the whole tree.
func (c Condition) Validate() error {
	switch c.kind {
	case MatchAll:
		return nil

	case AnyOf, AllOf:
		for _, child := range c.children {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil

	case Not:
		if len(c.children) != 1 {
			return errors.Join(ErrInvalidFilter, errors.New("negation needs exactly one condition"))
		}
		return c.children[0].Validate()

	case FieldMatchesPattern:
		if c.field == "" {
			return errors.Join(ErrInvalidFilter, errors.New("empty field name"))
		}
		if _, err := compilePattern(c.value); err != nil {
			return errors.Join(ErrInvalidFilter, err)
		}
		return nil

	case IDMintedSince:
		if c.scheme == nil {
			return errors.Join(ErrInvalidFilter, errors.New("missing id scheme"))
		}
		return nil

	case FieldEquals, FieldNotIn, FieldAbsent, FieldNull, FieldTimeBetween:
		if c.field == "" {
			return errors.Join(ErrInvalidFilter, errors.New("empty field name"))
		}
		return nil

	default:
		return errors.Join(ErrInvalidFilter, fmt.Errorf("unknown condition kind %d", int(c.kind)))
	}
}

// String renders the condition in a compact form for logs.
func (c Condition) String() string {
	switch c.kind {
	case MatchAll:
		return "*"
	case AnyOf, AllOf:
		parts := make([]string, 0, len(c.children))
		for _, child := range c.children {
			parts = append(parts, child.String())
		}
		sep := " OR "
		if c.kind == AllOf {
			sep = " AND "
		}
		return "(" + strings.Join(parts, sep) + ")"
	case Not:
		if len(c.children) == 1 {
			return "NOT " + c.children[0].String()
		}
		return "NOT ()"
	case FieldEquals:
		return fmt.Sprintf("%s = %q", c.field, c.value)
	case FieldMatchesPattern:
		return fmt.Sprintf("%s ~* %q", c.field, c.value)
	case FieldNotIn:
		return fmt.Sprintf("%s NOT IN [%d ids]", c.field, len(c.values))
	case FieldAbsent:
		return c.field + " IS ABSENT"
	case FieldNull:
		return c.field + " IS NULL"
	case FieldTimeBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s",
			c.field, c.from.UTC().Format(time.RFC3339), c.until.UTC().Format(time.RFC3339))
	case IDMintedSince:
		name := "?"
		if c.scheme != nil {
			name = c.scheme.Name()
		}
		return fmt.Sprintf("%s MINTED(%s) SINCE %s", c.field, name, c.from.UTC().Format(time.RFC3339))
	default:
		return c.kind.String()
	}
}

var (
	patternCacheMu sync.RWMutex
	patternCache   = make(map[string]*regexp.Regexp)
)

// CaseInsensitive prefixes a pattern with the RE2 case-insensitivity flag.
func CaseInsensitive(pattern string) string {
	return "(?i)" + pattern
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	patternCacheMu.RLock()
	re, ok := patternCache[pattern]
	patternCacheMu.RUnlock()

	if ok {
		return re, nil
	}

	re, err := regexp.Compile(CaseInsensitive(pattern))
	if err != nil {
		return nil, err
	}

	patternCacheMu.Lock()
	patternCache[pattern] = re
	patternCacheMu.Unlock()

	return re, nil
}

/***** Filter *****/

// Filter selects documents of one collection. The same Filter value is used for counting, sampling, and deleting.
type Filter struct {
	root Condition
}

// Root returns the condition tree of the Filter.
func (f Filter) Root() Condition {
	return f.root
}

// MatchesAll reports whether the Filter selects every document.
func (f Filter) MatchesAll() bool {
	return f.root.kind == MatchAll
}

func (f Filter) Matches(doc Document) (bool, error) {
	return f.root.Matches(doc)
}

func (f Filter) Validate() error {
	return f.root.Validate()
}

func (f Filter) String() string {
	return f.root.String()
}

/***** FilterBuilder *****/

// FilterBuilder builds a Filter to be used in store-specific implementations to build queries for
// the specific query language, e.g.: Postgres, MongoDB, or the in-memory evaluation.
// It supports the combinations the sanitizer needs:
//
//   - everything
//   - (condition)
//   - (condition OR condition...)
//   - ((condition OR condition...) AND NOT (condition OR condition...))
type FilterBuilder interface {
	// Matching starts the Filter with a first condition.
	Matching(condition Condition) CompletedFilterBuilder

	// MatchingAll directly creates a Filter that selects every document.
	MatchingAll() Filter
}

type CompletedFilterBuilder interface {
	// OrMatching adds an alternative condition.
	OrMatching(condition Condition) CompletedFilterBuilder

	// ExcludingMatches removes the documents matching the condition from the result.
	ExcludingMatches(condition Condition) CompletedFilterBuilder

	// Finalize returns the Filter.
	Finalize() Filter
}

// filterBuilder implements all the interfaces of FilterBuilder
type filterBuilder struct {
	alternatives []Condition
	exclusions   []Condition
}

// BuildFilter creates a FilterBuilder which must eventually be finalized with Finalize() or MatchingAll().
func BuildFilter() FilterBuilder {
	return filterBuilder{}
}

func (fb filterBuilder) Matching(condition Condition) CompletedFilterBuilder {
	fb.alternatives = []Condition{condition}

	return fb
}

func (fb filterBuilder) MatchingAll() Filter {
	return Filter{root: Everything()}
}

func (fb filterBuilder) OrMatching(condition Condition) CompletedFilterBuilder {
	fb.alternatives = append(append([]Condition(nil), fb.alternatives...), condition)

	return fb
}

func (fb filterBuilder) ExcludingMatches(condition Condition) CompletedFilterBuilder {
	fb.exclusions = append(append([]Condition(nil), fb.exclusions...), condition)

	return fb
}

func (fb filterBuilder) Finalize() Filter {
	var root Condition
	if len(fb.alternatives) == 1 {
		root = fb.alternatives[0]
	} else {
		root = Or(fb.alternatives...)
	}

	if len(fb.exclusions) == 0 {
		return Filter{root: root}
	}

	excluded := fb.exclusions[0]
	if len(fb.exclusions) > 1 {
		excluded = Or(fb.exclusions...)
	}

	return Filter{root: And(root, Negate(excluded))}
}

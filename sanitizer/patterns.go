package sanitizer

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

// DefaultKeywordPatterns are matched case-insensitively anywhere in a scannable text field.
var DefaultKeywordPatterns = []string{"test", "demo", "sample", "dummy", "temp", "debug", "fake", "mock", "example"}

// DefaultEmailPatterns describe the shape of generated test addresses.
var DefaultEmailPatterns = []string{
	`^test[^@]*@`,
	`^demo[^@]*@`,
	`@(test|example|mailinator)\.(com|org|net)$`,
	`\+test[^@]*@`,
}

// DefaultEmailAllowlist holds addresses known to be created by test scripts.
var DefaultEmailAllowlist = []string{
	"admin@test.com",
	"user@test.com",
	"john.doe@example.com",
	"jane.doe@example.com",
	"customer@shop.test",
}

// PatternMatcher builds the "looks like test data" filter of a collection.
type PatternMatcher struct {
	keywords       []string
	emailPatterns  []string
	emailAllowlist []string
}

// PatternOption configures a PatternMatcher.
type PatternOption func(*PatternMatcher) error

// WithKeywordPatterns replaces the keyword patterns.
func WithKeywordPatterns(patterns ...string) PatternOption {
	return func(m *PatternMatcher) error {
		if err := validatePatterns(patterns); err != nil {
			return err
		}
		m.keywords = slices.Clone(patterns)

		return nil
	}
}

// WithEmailPatterns replaces the email shape patterns.
func WithEmailPatterns(patterns ...string) PatternOption {
	return func(m *PatternMatcher) error {
		if err := validatePatterns(patterns); err != nil {
			return err
		}
		m.emailPatterns = slices.Clone(patterns)

		return nil
	}
}

// WithEmailAllowlist replaces the allowlist of literal test addresses.
func WithEmailAllowlist(addresses ...string) PatternOption {
	return func(m *PatternMatcher) error {
		m.emailAllowlist = normalizeAddresses(addresses)

		return nil
	}
}

// NewPatternMatcher creates a PatternMatcher with the default patterns, modified by the options.
func NewPatternMatcher(options ...PatternOption) (*PatternMatcher, error) {
	m := &PatternMatcher{
		keywords:       slices.Clone(DefaultKeywordPatterns),
		emailPatterns:  slices.Clone(DefaultEmailPatterns),
		emailAllowlist: normalizeAddresses(DefaultEmailAllowlist),
	}

	for _, option := range options {
		if err := option(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Filter returns the pattern filter of the collection: any scannable field contains a keyword,
// or the email field has a test shape, or the email is allowlisted. Protected documents are excluded.
// It reports false if the collection has nothing to scan.
func (m *PatternMatcher) Filter(descriptor CollectionDescriptor) (docstore.Filter, bool) {
	conditions := make([]docstore.Condition, 0, len(descriptor.scannableTextFields)+2)

	if len(m.keywords) > 0 {
		keywords := alternation(m.keywords)
		for _, field := range descriptor.scannableTextFields {
			conditions = append(conditions, docstore.MatchesPattern(field, keywords))
		}
	}

	if field := descriptor.emailField; field != "" {
		if len(m.emailPatterns) > 0 {
			conditions = append(conditions, docstore.MatchesPattern(field, alternation(m.emailPatterns)))
		}
		if len(m.emailAllowlist) > 0 {
			conditions = append(conditions, docstore.MatchesPattern(field, allowlistPattern(m.emailAllowlist)))
		}
	}

	if len(conditions) == 0 {
		return docstore.Filter{}, false
	}

	builder := docstore.BuildFilter().Matching(conditions[0])
	for _, c := range conditions[1:] {
		builder = builder.OrMatching(c)
	}

	if role, ok := descriptor.ProtectedRole(); ok {
		builder = builder.ExcludingMatches(role.Condition())
	}

	return builder.Finalize(), true
}

func alternation(patterns []string) string {
	if len(patterns) == 1 {
		return patterns[0]
	}

	return "(" + strings.Join(patterns, "|") + ")"
}

// allowlistPattern matches any of the addresses exactly, ignoring case and surrounding whitespace.
func allowlistPattern(addresses []string) string {
	quoted := make([]string, 0, len(addresses))
	for _, address := range addresses {
		quoted = append(quoted, regexp.QuoteMeta(address))
	}

	return `^\s*(` + strings.Join(quoted, "|") + `)\s*$`
}

func normalizeAddresses(addresses []string) []string {
	normalized := make([]string, 0, len(addresses))
	for _, address := range addresses {
		address = strings.ToLower(strings.TrimSpace(address))
		if address != "" && !slices.Contains(normalized, address) {
			normalized = append(normalized, address)
		}
	}

	return normalized
}

func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if p == "" {
			return errors.Join(ErrInvalidPattern, errors.New("empty pattern"))
		}
		if _, err := regexp.Compile(p); err != nil {
			return errors.Join(ErrInvalidPattern, fmt.Errorf("%q", p), err)
		}
	}

	return nil
}

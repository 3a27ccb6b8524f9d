package kvcache

import (
	"regexp"
	"strings"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
)

// Matcher reports whether a key matches a compiled invalidation pattern.
type Matcher func(key string) bool

// CompilePattern turns an invalidation pattern into a Matcher.
// A pattern without a wildcard matches one key exactly, a single trailing wildcard is a prefix
// match, and any other placement of wildcards matches any run of characters in their place.
func CompilePattern(pattern string) (Matcher, error) {
	if err := domain.ValidatePattern(pattern); err != nil {
		return nil, err
	}

	wildcards := strings.Count(pattern, domain.Wildcard)
	switch {
	case wildcards == 0:
		return func(key string) bool { return key == pattern }, nil
	case wildcards == 1 && strings.HasSuffix(pattern, domain.Wildcard):
		prefix := strings.TrimSuffix(pattern, domain.Wildcard)
		return func(key string) bool { return strings.HasPrefix(key, prefix) }, nil
	}

	parts := strings.Split(pattern, domain.Wildcard)
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	re, err := regexp.Compile("^" + strings.Join(parts, ".*") + "$")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidPattern.Error()), "pattern", pattern)
	}
	return re.MatchString, nil
}

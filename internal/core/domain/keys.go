package domain

import (
	"strings"
	"unicode"

	"go.trai.ch/zerr"
)

const (
	// MaxKeyLength bounds the size of cache and computation keys.
	MaxKeyLength = 512

	// Wildcard is the token that matches any run of characters in an invalidation pattern.
	Wildcard = "*"

	keySeparator = ":"
)

// JoinKey builds a cache key from its parts, e.g. JoinKey("totals", tenant, entity).
func JoinKey(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// TotalsKey is the cache and computation key of an entity's running totals.
func TotalsKey(tenantID, entityID string) string {
	return JoinKey("totals", tenantID, entityID)
}

// RollupKey is the cache and computation key of an entity's grouped counts.
func RollupKey(tenantID, entityID, groupBy string) string {
	return JoinKey("rollup", tenantID, entityID, groupBy)
}

// ValidateKey checks that key can be stored.
func ValidateKey(key string) error {
	if key == "" {
		return zerr.With(ErrInvalidKey, "reason", "empty")
	}
	if len(key) > MaxKeyLength {
		return zerr.With(zerr.With(ErrInvalidKey, "reason", "too long"), "length", len(key))
	}
	if strings.Contains(key, Wildcard) {
		return zerr.With(zerr.With(ErrInvalidKey, "reason", "contains wildcard"), "key", key)
	}
	if hasSpaceOrControl(key) {
		return zerr.With(zerr.With(ErrInvalidKey, "reason", "contains whitespace or control characters"), "key", key)
	}
	return nil
}

// ValidatePattern checks that an invalidation pattern is usable.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return zerr.With(ErrInvalidPattern, "reason", "empty")
	}
	if len(pattern) > MaxKeyLength {
		return zerr.With(zerr.With(ErrInvalidPattern, "reason", "too long"), "length", len(pattern))
	}
	if hasSpaceOrControl(pattern) {
		return zerr.With(zerr.With(ErrInvalidPattern, "reason", "contains whitespace or control characters"), "pattern", pattern)
	}
	return nil
}

func hasSpaceOrControl(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0
}

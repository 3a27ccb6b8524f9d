package domain

import (
	"maps"
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// Document is one opaque row of the authoritative store.
type Document map[string]any

// SortOrder is the direction of a sorted read.
type SortOrder string

const (
	// SortAsc sorts ascending.
	SortAsc SortOrder = "asc"
	// SortDesc sorts descending.
	SortDesc SortOrder = "desc"
)

// ParseSortOrder normalizes a user supplied sort order. The empty string means ascending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(s) {
	case "", string(SortAsc):
		return SortAsc, nil
	case string(SortDesc):
		return SortDesc, nil
	default:
		return "", zerr.With(ErrInvalidSortOrder, "sort_order", s)
	}
}

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidateField checks that a filter or sort field is a plain (optionally dotted) identifier.
func ValidateField(name string) error {
	if !fieldNameRe.MatchString(name) {
		return zerr.With(ErrInvalidField, "field", name)
	}
	return nil
}

// FindQuery is a filtered, sorted and windowed read against the authoritative store.
// Filter entries are equality matches on top-level or dotted document fields.
type FindQuery struct {
	Collection string
	TenantID   string
	Filter     map[string]any
	SortKey    string
	SortOrder  SortOrder
	Offset     int
	Limit      int
}

// FindResult is what the store returns for a FindQuery.
// Scanned counts the documents the store examined, which may exceed len(Documents).
type FindResult struct {
	Documents []Document
	Scanned   int
}

// PageRequest asks the query executor for one page of results.
// An empty CacheKey disables memoization.
type PageRequest struct {
	Collection  string
	TenantID    string
	Filter      map[string]any
	Page        int
	PageSize    int
	SortKey     string
	SortOrder   SortOrder
	CacheKey    string
	Description string
}

// Pagination describes the position of a page within the whole result set.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// PaginatedResult is one page of documents plus its pagination metadata.
type PaginatedResult struct {
	Data       []Document `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Clone copies the page and each of its documents. Nested values are shared.
func (r PaginatedResult) Clone() PaginatedResult {
	if r.Data == nil {
		return r
	}
	data := make([]Document, len(r.Data))
	for i, doc := range r.Data {
		data[i] = maps.Clone(doc)
	}
	r.Data = data
	return r
}

// NewPagination computes pagination metadata for page of size limit over total rows.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

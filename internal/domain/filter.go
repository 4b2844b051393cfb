package domain

import (
	"cmp"
	"fmt"
	"slices"
)

// OffsetOverCountError is returned when a page starts past the end of the
// collection. Count is the number of items that matched, so the client can
// correct its offset.
type OffsetOverCountError struct {
	Count int
}

func (e *OffsetOverCountError) Error() string {
	return fmt.Sprintf("offset is over the created articles count (%d)", e.Count)
}

// Page is one window of a collection together with the collection size.
type Page[T any] struct {
	Items []T
	Count int
}

// Paginate cuts the window [offset, offset+limit) out of items.
// offset == len(items) yields an empty page; offset > len(items) fails.
func Paginate[T any](items []T, limit Limit, offset Offset) (Page[T], error) {
	count := len(items)
	start := offset.Int()
	if start > count {
		return Page[T]{}, &OffsetOverCountError{Count: count}
	}
	end := min(start+limit.Int(), count)
	window := make([]T, end-start)
	copy(window, items[start:end])
	return Page[T]{Items: window, Count: count}, nil
}

// Matches reports whether the listing satisfies every present predicate.
func (p FilterParameters) Matches(l ArticleListing) bool {
	if p.Tag != nil && !l.Article.HasTag(*p.Tag) {
		return false
	}
	if p.Author != nil && l.Author.Username.String() != *p.Author {
		return false
	}
	if p.FavoritedByUsername != nil && !l.IsFavoritedBy(*p.FavoritedByUsername) {
		return false
	}
	return true
}

// FilterArticles keeps the listings matching every present predicate, orders
// them by ascending article ID and returns the requested window.
func FilterArticles(items []ArticleListing, p FilterParameters) (Page[ArticleListing], error) {
	matched := make([]ArticleListing, 0, len(items))
	for _, item := range items {
		if p.Matches(item) {
			matched = append(matched, item)
		}
	}
	slices.SortStableFunc(matched, func(a, b ArticleListing) int {
		return cmp.Compare(a.Article.ID, b.Article.ID)
	})
	return Paginate(matched, p.Limit, p.Offset)
}

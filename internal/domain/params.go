package domain

import "strconv"

// Pagination defaults and bounds.
const (
	DefaultLimit  = 20
	MinLimit      = 1
	MaxLimit      = 100
	DefaultOffset = 0
	MinOffset     = 0
)

// UserID identifies a registered user.
type UserID int64

// ArticleID identifies a created article.
type ArticleID int64

// CommentID identifies a comment.
type CommentID int64

// ValidateCommentID parses a comment id from a path segment.
func ValidateCommentID(raw *string) Result[CommentID] {
	if raw == nil || *raw == "" {
		return Failure[CommentID](required(KeyCommentID))
	}
	n, err := strconv.ParseInt(*raw, 10, 64)
	if err != nil {
		return Failure[CommentID](notInteger(KeyCommentID, *raw))
	}
	if n < 1 {
		return Failure[CommentID](requireMinimumOrOver(KeyCommentID, int(n), 1))
	}
	return Success(CommentID(n))
}

// Limit is a page size between 1 and 100.
type Limit struct{ value int }

// ValidateLimit defaults to 20 when absent.
func ValidateLimit(raw *string) Result[Limit] {
	if raw == nil {
		return Success(Limit{value: DefaultLimit})
	}
	n, err := strconv.Atoi(*raw)
	if err != nil {
		return Failure[Limit](notInteger(KeyLimit, *raw))
	}
	switch {
	case n < MinLimit:
		return Failure[Limit](requireMinimumOrOver(KeyLimit, n, MinLimit))
	case n > MaxLimit:
		return Failure[Limit](requireMaximumOrUnder(KeyLimit, n, MaxLimit))
	}
	return Success(Limit{value: n})
}

func LimitFromTrusted(v int) Limit { return Limit{value: v} }

func (l Limit) Int() int { return l.value }

// Offset is a non-negative page start.
type Offset struct{ value int }

// ValidateOffset defaults to 0 when absent.
func ValidateOffset(raw *string) Result[Offset] {
	if raw == nil {
		return Success(Offset{value: DefaultOffset})
	}
	n, err := strconv.Atoi(*raw)
	if err != nil {
		return Failure[Offset](notInteger(KeyOffset, *raw))
	}
	if n < MinOffset {
		return Failure[Offset](requireMinimumOrOver(KeyOffset, n, MinOffset))
	}
	return Success(Offset{value: n})
}

func OffsetFromTrusted(v int) Offset { return Offset{value: v} }

func (o Offset) Int() int { return o.value }

// FeedParameters is the window applied to a user's feed.
type FeedParameters struct {
	Limit  Limit
	Offset Offset
}

// ValidateFeedParameters validates limit and offset independently and
// reports failures of both, limit first.
func ValidateFeedParameters(limit, offset *string) Result[FeedParameters] {
	return Accumulate2(ValidateLimit(limit), ValidateOffset(offset),
		func(l Limit, o Offset) FeedParameters {
			return FeedParameters{Limit: l, Offset: o}
		})
}

// FilterParameters is the window and predicates applied to the article list.
// A nil predicate means no filtering on that axis. Predicates are not
// format-validated: a value no article can satisfy simply matches nothing.
type FilterParameters struct {
	Limit               Limit
	Offset              Offset
	Tag                 *string
	Author              *string
	FavoritedByUsername *string
}

func ValidateFilterParameters(tag, author, favoritedByUsername, limit, offset *string) Result[FilterParameters] {
	return Accumulate2(ValidateLimit(limit), ValidateOffset(offset),
		func(l Limit, o Offset) FilterParameters {
			return FilterParameters{
				Limit:               l,
				Offset:              o,
				Tag:                 cloneString(tag),
				Author:              cloneString(author),
				FavoritedByUsername: cloneString(favoritedByUsername),
			}
		})
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

package domain

import "time"

// Comment is a persisted comment on an article. Identity is the ID.
type Comment struct {
	ID        CommentID
	Body      CommentBody
	CreatedAt time.Time
	UpdatedAt time.Time
	AuthorID  UserID
}

// Equal compares by identity only.
func (c Comment) Equal(other Comment) bool {
	return c.ID == other.ID
}

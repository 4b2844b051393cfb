package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event that occurred.
// Events are immutable facts about something that happened.
type Event struct {
	ID        uuid.UUID
	Type      string
	Timestamp time.Time
	UserID    UserID
	Data      map[string]any
}

// Event type constants
const (
	EventUserRegistered     = "user.registered"
	EventUserUpdated        = "user.updated"
	EventProfileFollowed    = "profile.followed"
	EventProfileUnfollowed  = "profile.unfollowed"
	EventArticleCreated     = "article.created"
	EventArticleUpdated     = "article.updated"
	EventArticleDeleted     = "article.deleted"
	EventArticleFavorited   = "article.favorited"
	EventArticleUnfavorited = "article.unfavorited"
	EventCommentCreated     = "comment.created"
	EventCommentDeleted     = "comment.deleted"
)

// NewEvent creates a new domain event.
func NewEvent(eventType string, userID UserID, data map[string]any) Event {
	if data == nil {
		data = make(map[string]any)
	}
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Data:      data,
	}
}

func UserRegisteredEvent(u RegisteredUser) Event {
	return NewEvent(EventUserRegistered, u.ID, map[string]any{
		"email":    u.Email.String(),
		"username": u.Username.String(),
	})
}

func ArticleCreatedEvent(a CreatedArticle) Event {
	return NewEvent(EventArticleCreated, a.AuthorID, map[string]any{
		"article_id": int64(a.ID),
		"slug":       a.Slug.String(),
		"tags":       TagStrings(a.TagList),
	})
}

func ArticleUpdatedEvent(a CreatedArticle) Event {
	return NewEvent(EventArticleUpdated, a.AuthorID, map[string]any{
		"article_id": int64(a.ID),
		"slug":       a.Slug.String(),
	})
}

func ArticleDeletedEvent(a CreatedArticle) Event {
	return NewEvent(EventArticleDeleted, a.AuthorID, map[string]any{
		"article_id": int64(a.ID),
		"slug":       a.Slug.String(),
	})
}

func CommentCreatedEvent(slug Slug, c Comment) Event {
	return NewEvent(EventCommentCreated, c.AuthorID, map[string]any{
		"comment_id": int64(c.ID),
		"slug":       slug.String(),
	})
}

func CommentDeletedEvent(slug Slug, c Comment) Event {
	return NewEvent(EventCommentDeleted, c.AuthorID, map[string]any{
		"comment_id": int64(c.ID),
		"slug":       slug.String(),
	})
}

func FollowEvent(eventType string, follower UserID, followee Username) Event {
	return NewEvent(eventType, follower, map[string]any{
		"followee": followee.String(),
	})
}

func FavoriteEvent(eventType string, userID UserID, slug Slug) Event {
	return NewEvent(eventType, userID, map[string]any{
		"slug": slug.String(),
	})
}

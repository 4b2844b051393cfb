package domain

import "time"

// CreatedArticle is a persisted article as seen from a viewpoint user.
// Favorited is relative to that viewpoint. Identity is the ID; use Equal.
type CreatedArticle struct {
	ID             ArticleID
	Title          Title
	Slug           Slug
	Body           ArticleBody
	Description    Description
	TagList        []Tag
	AuthorID       UserID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Favorited      bool
	FavoritesCount int
}

// Equal compares by identity only.
func (a CreatedArticle) Equal(other CreatedArticle) bool {
	return a.ID == other.ID
}

// HasTag reports whether the article is labelled with name.
func (a CreatedArticle) HasTag(name string) bool {
	for _, t := range a.TagList {
		if t.value == name {
			return true
		}
	}
	return false
}

// UncreatedArticle is the input of article creation before it is persisted.
type UncreatedArticle struct {
	Slug        Slug
	Title       Title
	Description Description
	Body        ArticleBody
	TagList     []Tag
	AuthorID    UserID
}

// ValidateUncreatedArticle validates every field and reports all failures.
// A nil slug is generated.
func ValidateUncreatedArticle(
	slug, title, description, body *string,
	tagList []string,
	authorID UserID,
) Result[UncreatedArticle] {
	slugResult := Success(NewSlug())
	if slug != nil {
		slugResult = ValidateSlug(slug)
	}
	return Accumulate5(
		ValidateTitle(title),
		ValidateDescription(description),
		ValidateArticleBody(body),
		ValidateTagList(tagList),
		slugResult,
		func(t Title, d Description, b ArticleBody, tags []Tag, s Slug) UncreatedArticle {
			return UncreatedArticle{
				Slug:        s,
				Title:       t,
				Description: d,
				Body:        b,
				TagList:     tags,
				AuthorID:    authorID,
			}
		})
}

// ArticlePatch carries the optional new values of an article update.
type ArticlePatch struct {
	Title       *string
	Description *string
	Body        *string
}

// UpdatableCreatedArticle is a validated article update that differs from the
// stored article in at least one attribute. The slug never changes.
type UpdatableCreatedArticle struct {
	ArticleID   ArticleID
	Slug        Slug
	Title       Title
	Description Description
	Body        ArticleBody
}

func ValidateUpdatableCreatedArticle(current CreatedArticle, patch ArticlePatch) Result[UpdatableCreatedArticle] {
	merged := Accumulate3(
		mergeField(patch.Title, current.Title, ValidateTitle),
		mergeField(patch.Description, current.Description, ValidateDescription),
		mergeField(patch.Body, current.Body, ValidateArticleBody),
		func(t Title, d Description, b ArticleBody) UpdatableCreatedArticle {
			return UpdatableCreatedArticle{
				ArticleID:   current.ID,
				Slug:        current.Slug,
				Title:       t,
				Description: d,
				Body:        b,
			}
		})
	return Chain(merged, func(a UpdatableCreatedArticle) Result[UpdatableCreatedArticle] {
		if a.Title == current.Title && a.Description == current.Description && a.Body == current.Body {
			return Failure[UpdatableCreatedArticle](nothingToUpdate("article"))
		}
		return Success(a)
	})
}

// ArticleListing is the read model the filter engine works on.
type ArticleListing struct {
	Article     CreatedArticle
	Author      OtherUser
	FavoritedBy []Username
}

// IsFavoritedBy reports whether username favorited the article.
func (l ArticleListing) IsFavoritedBy(username string) bool {
	for _, u := range l.FavoritedBy {
		if u.value == username {
			return true
		}
	}
	return false
}

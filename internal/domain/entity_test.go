package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jake() RegisteredUser {
	return RegisteredUser{
		ID:       1,
		Email:    EmailFromTrusted("jake@jake.jake"),
		Username: UsernameFromTrusted("jake"),
		Bio:      BioFromTrusted("I work at statefarm"),
		Image:    ImageFromTrusted(""),
	}
}

func TestValidateUnregisteredUserReportsEveryField(t *testing.T) {
	r := ValidateUnregisteredUser(ptr("bad"), nil, ptr("abc"))

	assert.Equal(t, []ErrorKind{KindInvalidFormat, KindRequired, KindTooShort}, r.Errors().Kinds())
}

func TestValidateUpdatableRegisteredUser(t *testing.T) {
	current := jake()

	t.Run("absent patch", func(t *testing.T) {
		r := ValidateUpdatableRegisteredUser(current, UserPatch{})
		assert.Equal(t, []ErrorKind{KindNothingAttributeToUpdate}, r.Errors().Kinds())
	})

	t.Run("patch equal to current", func(t *testing.T) {
		r := ValidateUpdatableRegisteredUser(current, UserPatch{
			Email:    ptr(current.Email.String()),
			Username: ptr(current.Username.String()),
			Bio:      ptr(current.Bio.String()),
			Image:    ptr(current.Image.String()),
		})
		assert.Equal(t, []ErrorKind{KindNothingAttributeToUpdate}, r.Errors().Kinds())
	})

	t.Run("merges changed fields", func(t *testing.T) {
		u, err := ValidateUpdatableRegisteredUser(current, UserPatch{Bio: ptr("retired")}).Get()
		require.NoError(t, err)
		assert.Equal(t, current.ID, u.UserID)
		assert.Equal(t, "retired", u.Bio.String())
		assert.Equal(t, current.Email, u.Email)
		assert.Equal(t, current.Username, u.Username)
	})

	t.Run("field errors win over nothing to update", func(t *testing.T) {
		r := ValidateUpdatableRegisteredUser(current, UserPatch{Email: ptr("bad"), Username: ptr("ab")})
		assert.Equal(t, []ErrorKind{KindInvalidFormat, KindTooShort}, r.Errors().Kinds())
	})
}

func TestCreatedArticleEqualityIsByID(t *testing.T) {
	now := time.Now()
	a := CreatedArticle{ID: 1, Title: TitleFromTrusted("one"), Body: ArticleBodyFromTrusted("a"), CreatedAt: now}
	b := CreatedArticle{ID: 1, Title: TitleFromTrusted("two"), Body: ArticleBodyFromTrusted("b"), CreatedAt: now.Add(time.Hour)}
	c := a
	c.ID = 2

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestEntityEqualityIsByID(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		sameID      bool
		differentID bool
	}{
		{
			name: "registered user",
			sameID: RegisteredUser{ID: 1, Email: EmailFromTrusted("a@conduit.io"), Username: UsernameFromTrusted("jake")}.
				Equal(RegisteredUser{ID: 1, Email: EmailFromTrusted("b@conduit.io"), Username: UsernameFromTrusted("jane"), Bio: BioFromTrusted("hi")}),
			differentID: RegisteredUser{ID: 1, Username: UsernameFromTrusted("jake")}.
				Equal(RegisteredUser{ID: 2, Username: UsernameFromTrusted("jake")}),
		},
		{
			name: "comment",
			sameID: Comment{ID: 7, Body: CommentBodyFromTrusted("first"), CreatedAt: now, AuthorID: 1}.
				Equal(Comment{ID: 7, Body: CommentBodyFromTrusted("edited"), CreatedAt: now.Add(time.Hour), AuthorID: 2}),
			differentID: Comment{ID: 7, Body: CommentBodyFromTrusted("same"), CreatedAt: now, AuthorID: 1}.
				Equal(Comment{ID: 8, Body: CommentBodyFromTrusted("same"), CreatedAt: now, AuthorID: 1}),
		},
		{
			name: "other user",
			sameID: OtherUser{ID: 3, Username: UsernameFromTrusted("jake"), Following: true}.
				Equal(OtherUser{ID: 3, Username: UsernameFromTrusted("jane"), Image: ImageFromTrusted("x.png")}),
			differentID: OtherUser{ID: 3, Username: UsernameFromTrusted("jake"), Following: true}.
				Equal(OtherUser{ID: 4, Username: UsernameFromTrusted("jake"), Following: true}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.sameID, "same id with different attributes")
			assert.False(t, tt.differentID, "different id with the same attributes")
		})
	}
}

func TestValidateUncreatedArticle(t *testing.T) {
	t.Run("generates a slug", func(t *testing.T) {
		a, err := ValidateUncreatedArticle(nil, ptr("Dragons"), ptr("desc"), ptr("body"), []string{"x"}, 3).Get()
		require.NoError(t, err)
		assert.Len(t, a.Slug.String(), 32)
		assert.Equal(t, UserID(3), a.AuthorID)
		assert.Equal(t, []string{"x"}, TagStrings(a.TagList))
	})

	t.Run("reports every field", func(t *testing.T) {
		r := ValidateUncreatedArticle(ptr(""), nil, nil, nil, []string{""}, 3)
		keys := make([]string, len(r.Errors()))
		for i, e := range r.Errors() {
			keys[i] = e.Key
		}
		assert.Equal(t, []string{KeyTitle, KeyDescription, KeyBody, KeyTag, KeySlug}, keys)
	})
}

func TestValidateUpdatableCreatedArticle(t *testing.T) {
	current := CreatedArticle{
		ID:          9,
		Slug:        SlugFromTrusted("dragons"),
		Title:       TitleFromTrusted("Dragons"),
		Description: DescriptionFromTrusted("desc"),
		Body:        ArticleBodyFromTrusted("body"),
	}

	r := ValidateUpdatableCreatedArticle(current, ArticlePatch{Title: ptr("Dragons")})
	assert.Equal(t, []ErrorKind{KindNothingAttributeToUpdate}, r.Errors().Kinds())

	u, err := ValidateUpdatableCreatedArticle(current, ArticlePatch{Body: ptr("new body")}).Get()
	require.NoError(t, err)
	assert.Equal(t, current.Slug, u.Slug)
	assert.Equal(t, "new body", u.Body.String())
	assert.Equal(t, current.Title, u.Title)
}

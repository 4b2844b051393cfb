package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(id ArticleID, author string, tags []string, favoritedBy ...string) ArticleListing {
	fans := make([]Username, len(favoritedBy))
	for i, f := range favoritedBy {
		fans[i] = UsernameFromTrusted(f)
	}
	return ArticleListing{
		Article:     CreatedArticle{ID: id, TagList: TagsFromTrusted(tags)},
		Author:      OtherUser{Username: UsernameFromTrusted(author)},
		FavoritedBy: fans,
	}
}

func filter(t *testing.T, tag, author, favorited, limit, offset *string) FilterParameters {
	t.Helper()
	p, err := ValidateFilterParameters(tag, author, favorited, limit, offset).Get()
	require.NoError(t, err)
	return p
}

func ids(items []ArticleListing) []ArticleID {
	out := make([]ArticleID, len(items))
	for i, item := range items {
		out[i] = item.Article.ID
	}
	return out
}

func TestPaginateBoundary(t *testing.T) {
	items := []int{1, 2, 3}

	page, err := Paginate(items, LimitFromTrusted(20), OffsetFromTrusted(3))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Count)

	_, err = Paginate(items, LimitFromTrusted(20), OffsetFromTrusted(4))
	var over *OffsetOverCountError
	require.True(t, errors.As(err, &over))
	assert.Equal(t, 3, over.Count)
}

func TestPaginateWindow(t *testing.T) {
	page, err := Paginate([]int{1, 2, 3, 4, 5}, LimitFromTrusted(2), OffsetFromTrusted(1))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, page.Items)
	assert.Equal(t, 5, page.Count)
}

func TestFilterArticlesIntersectsPredicates(t *testing.T) {
	items := []ArticleListing{
		listing(4, "jake", []string{"go"}),
		listing(1, "jake", []string{"go", "db"}),
		listing(2, "jane", []string{"go"}),
		listing(3, "jake", []string{"db"}),
	}

	page, err := FilterArticles(items, filter(t, ptr("go"), ptr("jake"), nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []ArticleID{1, 4}, ids(page.Items))
	assert.Equal(t, 2, page.Count)
}

func TestFilterArticlesByFavorite(t *testing.T) {
	items := []ArticleListing{
		listing(1, "jake", nil, "jane"),
		listing(2, "jake", nil),
		listing(3, "jane", nil, "jake", "jane"),
	}

	page, err := FilterArticles(items, filter(t, nil, nil, ptr("jane"), nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []ArticleID{1, 3}, ids(page.Items))
}

func TestFilterArticlesOffsetOverCount(t *testing.T) {
	items := []ArticleListing{
		listing(1, "jake", []string{"go"}),
		listing(2, "jake", []string{"go"}),
		listing(3, "jake", []string{"db"}),
	}

	page, err := FilterArticles(items, filter(t, ptr("go"), nil, nil, nil, ptr("2")))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 2, page.Count)

	_, err = FilterArticles(items, filter(t, ptr("go"), nil, nil, nil, ptr("3")))
	var over *OffsetOverCountError
	require.ErrorAs(t, err, &over)
	assert.Equal(t, 2, over.Count)
}

func TestFilterArticlesUnknownPredicateMatchesNothing(t *testing.T) {
	items := []ArticleListing{listing(1, "jake", []string{"go"})}

	page, err := FilterArticles(items, filter(t, nil, ptr("nobody"), nil, nil, nil))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Count)
}

package http

import (
	"net/http"
	"time"

	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/service"
)

// Article response types

type articleResponse struct {
	Slug           string          `json:"slug"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Body           string          `json:"body"`
	TagList        []string        `json:"tagList"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
	Favorited      bool            `json:"favorited"`
	FavoritesCount int             `json:"favoritesCount"`
	Author         profileResponse `json:"author"`
}

type articleEnvelope struct {
	Article articleResponse `json:"article"`
}

type articlesEnvelope struct {
	Articles      []articleResponse `json:"articles"`
	ArticlesCount int               `json:"articlesCount"`
}

func toArticleResponse(v service.ArticleView) articleResponse {
	a := v.Article
	return articleResponse{
		Slug:           a.Slug.String(),
		Title:          a.Title.String(),
		Description:    a.Description.String(),
		Body:           a.Body.String(),
		TagList:        domain.TagStrings(a.TagList),
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      a.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Favorited:      a.Favorited,
		FavoritesCount: a.FavoritesCount,
		Author:         toProfileResponse(v.Author),
	}
}

func toArticlesEnvelope(page service.ArticlePage) articlesEnvelope {
	out := articlesEnvelope{
		Articles:      make([]articleResponse, len(page.Articles)),
		ArticlesCount: page.Count,
	}
	for i, v := range page.Articles {
		out.Articles[i] = toArticleResponse(v)
	}
	return out
}

// Article handlers

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	page, err := s.articleService.FilterCreatedArticles(r.Context(),
		queryParam(r, "tag"),
		queryParam(r, "author"),
		queryParam(r, "favorited"),
		queryParam(r, "limit"),
		queryParam(r, "offset"),
		viewpoint(r),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toArticlesEnvelope(page))
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	page, err := s.articleService.FeedCreatedArticles(r.Context(),
		queryParam(r, "limit"),
		queryParam(r, "offset"),
		currentUserID(r),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toArticlesEnvelope(page))
}

func (s *Server) handleShowArticle(w http.ResponseWriter, r *http.Request) {
	article, err := s.articleService.ShowCreatedArticle(r.Context(), pathParam(r, "slug"), viewpoint(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, articleEnvelope{Article: toArticleResponse(article)})
}

type createArticleRequest struct {
	Article struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Body        *string  `json:"body"`
		TagList     []string `json:"tagList"`
	} `json:"article"`
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	article, err := s.articleService.CreateArticle(r.Context(),
		req.Article.Title,
		req.Article.Description,
		req.Article.Body,
		req.Article.TagList,
		currentUserID(r),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, articleEnvelope{Article: toArticleResponse(article)})
}

type updateArticleRequest struct {
	Article struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Body        *string `json:"body"`
	} `json:"article"`
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	var req updateArticleRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	article, err := s.articleService.UpdateCreatedArticle(r.Context(),
		pathParam(r, "slug"),
		domain.ArticlePatch{
			Title:       req.Article.Title,
			Description: req.Article.Description,
			Body:        req.Article.Body,
		},
		currentUserID(r),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, articleEnvelope{Article: toArticleResponse(article)})
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := s.articleService.DeleteCreatedArticle(r.Context(), pathParam(r, "slug"), currentUserID(r)); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	article, err := s.articleService.FavoriteArticle(r.Context(), pathParam(r, "slug"), currentUserID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, articleEnvelope{Article: toArticleResponse(article)})
}

func (s *Server) handleUnfavorite(w http.ResponseWriter, r *http.Request) {
	article, err := s.articleService.UnfavoriteArticle(r.Context(), pathParam(r, "slug"), currentUserID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, articleEnvelope{Article: toArticleResponse(article)})
}

// Tag handlers

type tagsEnvelope struct {
	Tags []string `json:"tags"`
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.articleService.ListTags(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tagsEnvelope{Tags: domain.TagStrings(tags)})
}

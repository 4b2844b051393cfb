package http

import (
	"net/http"
	"time"

	"github.com/mvaleed/conduit/internal/service"
)

// Comment handlers

type commentResponse struct {
	ID        int64           `json:"id"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
	Body      string          `json:"body"`
	Author    profileResponse `json:"author"`
}

type commentEnvelope struct {
	Comment commentResponse `json:"comment"`
}

type commentsEnvelope struct {
	Comments []commentResponse `json:"comments"`
}

func toCommentResponse(v service.CommentView) commentResponse {
	return commentResponse{
		ID:        int64(v.Comment.ID),
		CreatedAt: v.Comment.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: v.Comment.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Body:      v.Comment.Body.String(),
		Author:    toProfileResponse(v.Author),
	}
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.commentService.ListComments(r.Context(), pathParam(r, "slug"), viewpoint(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := commentsEnvelope{Comments: make([]commentResponse, len(comments))}
	for i, c := range comments {
		out.Comments[i] = toCommentResponse(c)
	}
	s.writeJSON(w, http.StatusOK, out)
}

type createCommentRequest struct {
	Comment struct {
		Body *string `json:"body"`
	} `json:"comment"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	comment, err := s.commentService.CreateComment(r.Context(), pathParam(r, "slug"), req.Comment.Body, currentUserID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, commentEnvelope{Comment: toCommentResponse(comment)})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	err := s.commentService.DeleteComment(r.Context(), pathParam(r, "slug"), pathParam(r, "id"), currentUserID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"net/http"

	"github.com/mvaleed/conduit/internal/domain"
)

// User response types

type userResponse struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

type userEnvelope struct {
	User userResponse `json:"user"`
}

type profileResponse struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

type profileEnvelope struct {
	Profile profileResponse `json:"profile"`
}

func toProfileResponse(p domain.Profile) profileResponse {
	return profileResponse{
		Username:  p.Username.String(),
		Bio:       p.Bio.String(),
		Image:     p.Image.String(),
		Following: p.Following,
	}
}

// respondWithUser issues a fresh token for the user.
func (s *Server) respondWithUser(w http.ResponseWriter, status int, user domain.RegisteredUser) {
	token, _, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, status, userEnvelope{User: userResponse{
		Email:    user.Email.String(),
		Token:    token,
		Username: user.Username.String(),
		Bio:      user.Bio.String(),
		Image:    user.Image.String(),
	}})
}

// User handlers

type registerRequest struct {
	User struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Username *string `json:"username"`
	} `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	user, err := s.userService.RegisterUser(r.Context(), req.User.Email, req.User.Password, req.User.Username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondWithUser(w, http.StatusCreated, user)
}

type loginRequest struct {
	User struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
	} `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	user, err := s.userService.LoginUser(r.Context(), req.User.Email, req.User.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondWithUser(w, http.StatusOK, user)
}

func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.userService.ShowCurrentUser(r.Context(), currentUserID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondWithUser(w, http.StatusOK, user)
}

type updateUserRequest struct {
	User struct {
		Email    *string `json:"email"`
		Username *string `json:"username"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	} `json:"user"`
}

func (s *Server) handleUpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	user, err := s.userService.UpdateCurrentUser(r.Context(), currentUserID(r), domain.UserPatch{
		Email:    req.User.Email,
		Username: req.User.Username,
		Bio:      req.User.Bio,
		Image:    req.User.Image,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondWithUser(w, http.StatusOK, user)
}

// Profile handlers

func (s *Server) handleShowProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profileService.ShowProfile(r.Context(), pathParam(r, "username"), viewpoint(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, profileEnvelope{Profile: toProfileResponse(profile)})
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profileService.FollowProfile(r.Context(), pathParam(r, "username"), currentUserID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, profileEnvelope{Profile: toProfileResponse(profile)})
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profileService.UnfollowProfile(r.Context(), pathParam(r, "username"), currentUserID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, profileEnvelope{Profile: toProfileResponse(profile)})
}

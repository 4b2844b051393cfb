package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/event"
	"github.com/mvaleed/conduit/internal/storage"
)

// ProfileService handles public profiles and follows.
type ProfileService struct {
	profiles  storage.ProfileRepository
	publisher event.Publisher
	logger    *logrus.Logger
}

func NewProfileService(profiles storage.ProfileRepository, publisher event.Publisher, logger *logrus.Logger) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		publisher: publisher,
		logger:    logger,
	}
}

// ShowProfile returns a profile as seen by viewpoint (nil for anonymous).
//
// Errors: ValidationErrorsError, NotFoundError, UnexpectedError.
func (s *ProfileService) ShowProfile(ctx context.Context, username *string, viewpoint *domain.UserID) (domain.Profile, error) {
	name, err := validated(OpShowProfile, domain.ValidateUsername(username))
	if err != nil {
		return domain.Profile{}, err
	}

	profile, err := s.profiles.Show(ctx, name, viewpoint)
	if err != nil {
		return domain.Profile{}, lookupFailure(OpShowProfile, err)
	}
	return profile, nil
}

// FollowProfile makes the current user follow username.
//
// Errors: ValidationErrorsError, NotFoundError, UnexpectedError.
func (s *ProfileService) FollowProfile(ctx context.Context, username *string, follower domain.UserID) (domain.Profile, error) {
	name, err := validated(OpFollowProfile, domain.ValidateUsername(username))
	if err != nil {
		return domain.Profile{}, err
	}

	profile, err := s.profiles.Follow(ctx, name, follower)
	if err != nil {
		return domain.Profile{}, lookupFailure(OpFollowProfile, err)
	}

	publish(ctx, s.publisher, s.logger, domain.FollowEvent(domain.EventProfileFollowed, follower, name))
	return profile, nil
}

// UnfollowProfile removes the current user's follow of username.
//
// Errors: ValidationErrorsError, NotFoundError, UnexpectedError.
func (s *ProfileService) UnfollowProfile(ctx context.Context, username *string, follower domain.UserID) (domain.Profile, error) {
	name, err := validated(OpUnfollowProfile, domain.ValidateUsername(username))
	if err != nil {
		return domain.Profile{}, err
	}

	profile, err := s.profiles.Unfollow(ctx, name, follower)
	if err != nil {
		return domain.Profile{}, lookupFailure(OpUnfollowProfile, err)
	}

	publish(ctx, s.publisher, s.logger, domain.FollowEvent(domain.EventProfileUnfollowed, follower, name))
	return profile, nil
}

// lookupFailure maps a storage error from a lookup-style call.
func lookupFailure(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &NotFoundError{Op: op, Err: err}
	}
	return unexpected(op, err)
}

// Package service contains the use cases of the publishing core.
//
// Every use case follows the same shape: validate raw input into domain
// values, consult storage, enforce ownership where the operation requires it,
// perform the read or mutation, and translate every failure into one of the
// variants in errors.go. Each method documents the variants it can return.
// Services do not know about HTTP, gRPC, or transport details.
package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/mvaleed/conduit/internal/auth"
	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/event"
	"github.com/mvaleed/conduit/internal/storage"
)

// UserService handles account operations of the current user.
type UserService struct {
	users     storage.UserRepository
	hasher    *auth.Hasher
	publisher event.Publisher
	logger    *logrus.Logger
}

func NewUserService(
	users storage.UserRepository,
	hasher *auth.Hasher,
	publisher event.Publisher,
	logger *logrus.Logger,
) *UserService {
	return &UserService{
		users:     users,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterUser creates a new account.
//
// Errors: ValidationErrorsError, AlreadyExistsError, UnexpectedError.
func (s *UserService) RegisterUser(ctx context.Context, email, password, username *string) (domain.RegisteredUser, error) {
	input, err := validated(OpRegisterUser, domain.ValidateUnregisteredUser(email, password, username))
	if err != nil {
		return domain.RegisteredUser{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.RegisteredUser{}, unexpected(OpRegisterUser, err)
	}

	user, err := s.users.Register(ctx, input, hash)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.RegisteredUser{}, &AlreadyExistsError{Op: OpRegisterUser, Err: err}
		}
		return domain.RegisteredUser{}, unexpected(OpRegisterUser, err)
	}

	publish(ctx, s.publisher, s.logger, domain.UserRegisteredEvent(user))

	return user, nil
}

// LoginUser authenticates by email and password. An unknown email and a
// wrong password are indistinguishable to the caller.
//
// Errors: ValidationErrorsError, UnauthorizedError, UnexpectedError.
func (s *UserService) LoginUser(ctx context.Context, email, password *string) (domain.RegisteredUser, error) {
	creds, err := validated(OpLoginUser, domain.ValidateLoginCredentials(email, password))
	if err != nil {
		return domain.RegisteredUser{}, err
	}

	user, hash, err := s.users.FindByEmailWithPassword(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RegisteredUser{}, &UnauthorizedError{Op: OpLoginUser, Err: domain.ErrInvalidCredential}
		}
		return domain.RegisteredUser{}, unexpected(OpLoginUser, err)
	}

	if err := s.hasher.Check(creds.Password, hash); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return domain.RegisteredUser{}, &UnauthorizedError{Op: OpLoginUser, Err: domain.ErrInvalidCredential}
		}
		return domain.RegisteredUser{}, unexpected(OpLoginUser, err)
	}

	return user, nil
}

// ShowCurrentUser returns the account of the authenticated user.
//
// Errors: NotFoundError, UnexpectedError.
func (s *UserService) ShowCurrentUser(ctx context.Context, id domain.UserID) (domain.RegisteredUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RegisteredUser{}, &NotFoundError{Op: OpShowCurrentUser, Err: err}
		}
		return domain.RegisteredUser{}, unexpected(OpShowCurrentUser, err)
	}
	return user, nil
}

// UpdateCurrentUser applies a profile patch to the authenticated user.
//
// Errors: NotFoundError, ValidationErrorsError, NothingToUpdateError,
// AlreadyExistsError, UnexpectedError.
func (s *UserService) UpdateCurrentUser(ctx context.Context, id domain.UserID, patch domain.UserPatch) (domain.RegisteredUser, error) {
	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RegisteredUser{}, &NotFoundError{Op: OpUpdateCurrentUser, Err: err}
		}
		return domain.RegisteredUser{}, unexpected(OpUpdateCurrentUser, err)
	}

	update, err := validated(OpUpdateCurrentUser, domain.ValidateUpdatableRegisteredUser(current, patch))
	if err != nil {
		return domain.RegisteredUser{}, err
	}

	user, err := s.users.Update(ctx, update)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			return domain.RegisteredUser{}, &AlreadyExistsError{Op: OpUpdateCurrentUser, Err: err}
		case errors.Is(err, domain.ErrNotFound):
			return domain.RegisteredUser{}, &NotFoundError{Op: OpUpdateCurrentUser, Err: err}
		}
		return domain.RegisteredUser{}, unexpected(OpUpdateCurrentUser, err)
	}

	publish(ctx, s.publisher, s.logger, domain.NewEvent(domain.EventUserUpdated, user.ID, nil))

	return user, nil
}

// publish sends an event and logs, rather than returns, a failure.
func publish(ctx context.Context, publisher event.Publisher, logger *logrus.Logger, e domain.Event) {
	if err := publisher.Publish(ctx, e); err != nil {
		logger.WithError(err).WithField("event_type", e.Type).Warn("event publish failed")
	}
}

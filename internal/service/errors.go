package service

import (
	"fmt"

	"github.com/mvaleed/conduit/internal/domain"
)

// Use case names carried by every failure variant.
const (
	OpRegisterUser          = "RegisterUser"
	OpLoginUser             = "LoginUser"
	OpShowCurrentUser       = "ShowCurrentUser"
	OpUpdateCurrentUser     = "UpdateCurrentUser"
	OpShowProfile           = "ShowProfile"
	OpFollowProfile         = "FollowProfile"
	OpUnfollowProfile       = "UnfollowProfile"
	OpFilterCreatedArticles = "FilterCreatedArticles"
	OpFeedCreatedArticles   = "FeedCreatedArticles"
	OpShowCreatedArticle    = "ShowCreatedArticle"
	OpCreateArticle         = "CreateArticle"
	OpUpdateCreatedArticle  = "UpdateCreatedArticle"
	OpDeleteCreatedArticle  = "DeleteCreatedArticle"
	OpFavoriteArticle       = "FavoriteArticle"
	OpUnfavoriteArticle     = "UnfavoriteArticle"
	OpListTags              = "ListTags"
	OpListComments          = "ListComments"
	OpCreateComment         = "CreateComment"
	OpDeleteComment         = "DeleteComment"
)

// HasValidationErrors is implemented by failures that carry field errors.
type HasValidationErrors interface {
	error
	ValidationErrors() domain.ValidationErrors
}

// HasCause is implemented by failures that wrap a collaborator error.
type HasCause interface {
	error
	Cause() error
}

// ValidationErrorsError means the raw input did not validate. No collaborator
// was consulted.
type ValidationErrorsError struct {
	Op     string
	Errors domain.ValidationErrors
}

func (e *ValidationErrorsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Errors.Error())
}

func (e *ValidationErrorsError) ValidationErrors() domain.ValidationErrors { return e.Errors }

func (e *ValidationErrorsError) Unwrap() error { return e.Errors }

// NotFoundError means a named entity does not exist.
type NotFoundError struct {
	Op  string
	Err error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NotFoundError) Cause() error { return e.Err }

func (e *NotFoundError) Unwrap() error { return e.Err }

// NotAuthorError means the acting user does not own the resource.
type NotAuthorError struct {
	Op       string
	UserID   domain.UserID
	AuthorID domain.UserID
}

func (e *NotAuthorError) Error() string {
	return fmt.Sprintf("%s: user %d is not the author (author is %d)", e.Op, e.UserID, e.AuthorID)
}

// UnauthorizedError means the credentials did not identify a user.
type UnauthorizedError struct {
	Op  string
	Err error
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s: unauthorized", e.Op)
}

func (e *UnauthorizedError) Cause() error { return e.Err }

func (e *UnauthorizedError) Unwrap() error { return e.Err }

// NothingToUpdateError means an update patch would leave the entity unchanged.
type NothingToUpdateError struct {
	Op     string
	Errors domain.ValidationErrors
}

func (e *NothingToUpdateError) Error() string {
	return fmt.Sprintf("%s: nothing to update", e.Op)
}

func (e *NothingToUpdateError) ValidationErrors() domain.ValidationErrors { return e.Errors }

// AlreadyExistsError means a uniqueness constraint rejected the write.
type AlreadyExistsError struct {
	Op  string
	Err error
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AlreadyExistsError) Cause() error { return e.Err }

func (e *AlreadyExistsError) Unwrap() error { return e.Err }

// OffsetOverCountError means the requested page starts past the last match.
// Count is the number of matching articles.
type OffsetOverCountError struct {
	Op    string
	Count int
}

func (e *OffsetOverCountError) Error() string {
	return fmt.Sprintf("%s: offset is over the created articles count (%d)", e.Op, e.Count)
}

// UnexpectedError wraps a collaborator fault that the use case does not
// interpret. Callers should only log or report it.
type UnexpectedError struct {
	Op  string
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%s: unexpected error: %v", e.Op, e.Err)
}

func (e *UnexpectedError) Cause() error { return e.Err }

func (e *UnexpectedError) Unwrap() error { return e.Err }

// unexpected wraps a collaborator fault. Transports log the cause when they
// render the failure, so use cases only wrap it.
func unexpected(op string, err error) error {
	return &UnexpectedError{Op: op, Err: err}
}

// invalid converts a validation failure into the use case's variant,
// separating the no-op update guard from field errors.
func invalid(op string, errs domain.ValidationErrors) error {
	if len(errs) == 1 && errs[0].Kind == domain.KindNothingAttributeToUpdate {
		return &NothingToUpdateError{Op: op, Errors: errs}
	}
	return &ValidationErrorsError{Op: op, Errors: errs}
}

// validated unwraps a validation result, converting a failure with invalid.
func validated[T any](op string, r domain.Result[T]) (T, error) {
	v, err := r.Get()
	if err != nil {
		return v, invalid(op, r.Errors())
	}
	return v, nil
}

// verifyAuthor checks that actor owns a resource written by author.
func verifyAuthor(op string, author, actor domain.UserID) error {
	if author != actor {
		return &NotAuthorError{Op: op, UserID: actor, AuthorID: author}
	}
	return nil
}

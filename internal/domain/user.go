package domain

// RegisteredUser is a persisted user account.
// Two users are the same entity when their IDs match; use Equal, not ==.
type RegisteredUser struct {
	ID       UserID
	Email    Email
	Username Username
	Bio      Bio
	Image    Image
}

// Equal compares by identity only.
func (u RegisteredUser) Equal(other RegisteredUser) bool {
	return u.ID == other.ID
}

// UnregisteredUser is the input of a registration before it is persisted.
type UnregisteredUser struct {
	Email    Email
	Password Password
	Username Username
}

// ValidateUnregisteredUser validates all three fields and reports every failure.
func ValidateUnregisteredUser(email, password, username *string) Result[UnregisteredUser] {
	return Accumulate3(ValidateEmail(email), ValidatePassword(password), ValidateUsername(username),
		func(e Email, p Password, u Username) UnregisteredUser {
			return UnregisteredUser{Email: e, Password: p, Username: u}
		})
}

// LoginCredentials is a validated email/password pair.
type LoginCredentials struct {
	Email    Email
	Password Password
}

func ValidateLoginCredentials(email, password *string) Result[LoginCredentials] {
	return Accumulate2(ValidateEmail(email), ValidatePassword(password),
		func(e Email, p Password) LoginCredentials {
			return LoginCredentials{Email: e, Password: p}
		})
}

// UserPatch carries the optional new values of a profile update.
// A nil field keeps the current value.
type UserPatch struct {
	Email    *string
	Username *string
	Bio      *string
	Image    *string
}

// UpdatableRegisteredUser is a validated profile update that differs from the
// stored user in at least one attribute.
type UpdatableRegisteredUser struct {
	UserID   UserID
	Email    Email
	Username Username
	Bio      Bio
	Image    Image
}

// ValidateUpdatableRegisteredUser merges patch over current. It fails with
// NothingAttributeToUpdatable when every field validates but the merged
// result equals current.
func ValidateUpdatableRegisteredUser(current RegisteredUser, patch UserPatch) Result[UpdatableRegisteredUser] {
	merged := Accumulate4(
		mergeField(patch.Email, current.Email, ValidateEmail),
		mergeField(patch.Username, current.Username, ValidateUsername),
		mergeField(patch.Bio, current.Bio, ValidateBio),
		mergeField(patch.Image, current.Image, ValidateImage),
		func(e Email, u Username, b Bio, i Image) UpdatableRegisteredUser {
			return UpdatableRegisteredUser{UserID: current.ID, Email: e, Username: u, Bio: b, Image: i}
		})
	return Chain(merged, func(u UpdatableRegisteredUser) Result[UpdatableRegisteredUser] {
		if u.Email == current.Email && u.Username == current.Username &&
			u.Bio == current.Bio && u.Image == current.Image {
			return Failure[UpdatableRegisteredUser](nothingToUpdate("user"))
		}
		return Success(u)
	})
}

// mergeField keeps the current value when raw is absent and validates raw otherwise.
func mergeField[T any](raw *string, current T, validate func(*string) Result[T]) Result[T] {
	if raw == nil {
		return Success(current)
	}
	return validate(raw)
}

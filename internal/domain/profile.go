package domain

// OtherUser is a user seen from a viewpoint user. Following is relative to
// that viewpoint and is false when there is none. Identity is the ID.
type OtherUser struct {
	ID        UserID
	Username  Username
	Bio       Bio
	Image     Image
	Following bool
}

// Profile is the public view of a user.
type Profile = OtherUser

// Equal compares by identity only.
func (o OtherUser) Equal(other OtherUser) bool {
	return o.ID == other.ID
}

package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/mvaleed/conduit/internal/domain"
)

// UserRepository implements storage.UserRepository.
type UserRepository struct {
	s *Store
}

func (t *tables) userByUsername(username domain.Username) (userRow, bool) {
	for _, row := range t.users {
		if row.user.Username == username {
			return row, true
		}
	}
	return userRow{}, false
}

// taken reports whether email or username belongs to a user other than self.
func (t *tables) taken(email domain.Email, username domain.Username, self domain.UserID) error {
	for _, row := range t.users {
		if row.user.ID == self {
			continue
		}
		if row.user.Email == email {
			return fmt.Errorf("email %s: %w", email, domain.ErrAlreadyExists)
		}
		if row.user.Username == username {
			return fmt.Errorf("username %s: %w", username, domain.ErrAlreadyExists)
		}
	}
	return nil
}

func (r *UserRepository) Register(ctx context.Context, input domain.UnregisteredUser, passwordHash string) (domain.RegisteredUser, error) {
	var user domain.RegisteredUser
	err := r.s.write(ctx, func(t *tables) error {
		if err := t.taken(input.Email, input.Username, 0); err != nil {
			return err
		}
		if user.ID == 0 {
			user = domain.RegisteredUser{
				ID:       domain.UserID(r.s.userSeq.Add(1)),
				Email:    input.Email,
				Username: input.Username,
			}
		}
		t.users[user.ID] = userRow{user: user, hash: passwordHash}
		return nil
	})
	return user, err
}

func (r *UserRepository) FindByEmailWithPassword(ctx context.Context, email domain.Email) (domain.RegisteredUser, string, error) {
	var found userRow
	err := r.s.read(ctx, func(t *tables) error {
		for _, row := range t.users {
			if row.user.Email == email {
				found = row
				return nil
			}
		}
		return domain.ErrUserNotFound
	})
	return found.user, found.hash, err
}

func (r *UserRepository) FindByID(ctx context.Context, id domain.UserID) (domain.RegisteredUser, error) {
	var user domain.RegisteredUser
	err := r.s.read(ctx, func(t *tables) error {
		row, ok := t.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		user = row.user
		return nil
	})
	return user, err
}

func (r *UserRepository) Update(ctx context.Context, update domain.UpdatableRegisteredUser) (domain.RegisteredUser, error) {
	var user domain.RegisteredUser
	err := r.s.write(ctx, func(t *tables) error {
		row, ok := t.users[update.UserID]
		if !ok {
			return domain.ErrUserNotFound
		}
		if err := t.taken(update.Email, update.Username, update.UserID); err != nil {
			return err
		}
		row.user.Email = update.Email
		row.user.Username = update.Username
		row.user.Bio = update.Bio
		row.user.Image = update.Image
		t.users[update.UserID] = row
		user = row.user
		return nil
	})
	return user, err
}

// ProfileRepository implements storage.ProfileRepository.
type ProfileRepository struct {
	s *Store
}

func (t *tables) profile(u domain.RegisteredUser, viewpoint *domain.UserID) domain.Profile {
	following := false
	if viewpoint != nil {
		_, following = t.follows[follow{follower: *viewpoint, followee: u.ID}]
	}
	return domain.Profile{
		ID:        u.ID,
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: following,
	}
}

func (r *ProfileRepository) Show(ctx context.Context, username domain.Username, viewpoint *domain.UserID) (domain.Profile, error) {
	var p domain.Profile
	err := r.s.read(ctx, func(t *tables) error {
		row, ok := t.userByUsername(username)
		if !ok {
			return domain.ErrProfileNotFound
		}
		p = t.profile(row.user, viewpoint)
		return nil
	})
	return p, err
}

func (r *ProfileRepository) FilterByUserIDs(ctx context.Context, ids []domain.UserID, viewpoint *domain.UserID) ([]domain.Profile, error) {
	var out []domain.Profile
	err := r.s.read(ctx, func(t *tables) error {
		out = make([]domain.Profile, 0, len(ids))
		for _, id := range ids {
			if row, ok := t.users[id]; ok {
				out = append(out, t.profile(row.user, viewpoint))
			}
		}
		return nil
	})
	return out, err
}

func (r *ProfileRepository) FilterFollowedBy(ctx context.Context, userID domain.UserID) ([]domain.Profile, error) {
	var out []domain.Profile
	err := r.s.read(ctx, func(t *tables) error {
		for f := range t.follows {
			if f.follower != userID {
				continue
			}
			if row, ok := t.users[f.followee]; ok {
				out = append(out, t.profile(row.user, &userID))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b domain.Profile) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (r *ProfileRepository) Follow(ctx context.Context, username domain.Username, follower domain.UserID) (domain.Profile, error) {
	return r.setFollow(ctx, username, follower, true)
}

func (r *ProfileRepository) Unfollow(ctx context.Context, username domain.Username, follower domain.UserID) (domain.Profile, error) {
	return r.setFollow(ctx, username, follower, false)
}

func (r *ProfileRepository) setFollow(ctx context.Context, username domain.Username, follower domain.UserID, on bool) (domain.Profile, error) {
	var p domain.Profile
	err := r.s.write(ctx, func(t *tables) error {
		row, ok := t.userByUsername(username)
		if !ok {
			return domain.ErrProfileNotFound
		}
		key := follow{follower: follower, followee: row.user.ID}
		if on {
			t.follows[key] = struct{}{}
		} else {
			delete(t.follows, key)
		}
		p = t.profile(row.user, &follower)
		return nil
	})
	return p, err
}

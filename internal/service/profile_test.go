package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowAndUnfollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jake := f.register(t, "jake")
	f.register(t, "jane")

	profile, err := f.profiles.ShowProfile(ctx, ptr("jane"), nil)
	require.NoError(t, err)
	assert.False(t, profile.Following)

	profile, err = f.profiles.FollowProfile(ctx, ptr("jane"), jake.ID)
	require.NoError(t, err)
	assert.True(t, profile.Following)

	// idempotent
	profile, err = f.profiles.FollowProfile(ctx, ptr("jane"), jake.ID)
	require.NoError(t, err)
	assert.True(t, profile.Following)

	profile, err = f.profiles.ShowProfile(ctx, ptr("jane"), &jake.ID)
	require.NoError(t, err)
	assert.True(t, profile.Following)

	profile, err = f.profiles.ShowProfile(ctx, ptr("jane"), nil)
	require.NoError(t, err)
	assert.False(t, profile.Following)

	profile, err = f.profiles.UnfollowProfile(ctx, ptr("jane"), jake.ID)
	require.NoError(t, err)
	assert.False(t, profile.Following)
}

func TestShowProfileFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.profiles.ShowProfile(ctx, ptr("nobody"), nil)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = f.profiles.ShowProfile(ctx, ptr("ab"), nil)
	var invalid *ValidationErrorsError
	assert.ErrorAs(t, err, &invalid)

	_, err = f.profiles.FollowProfile(ctx, ptr("nobody"), 1)
	assert.ErrorAs(t, err, &notFound)
}

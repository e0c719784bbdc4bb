package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

func TestInterests(t *testing.T) {
	f := newFixture(t)
	me := f.viewer(t, "me", nil)

	tags, err := f.svc.Interests.List(f.ctx, me)
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)

	tags, err = f.svc.Interests.Add(f.ctx, me, "Music")
	require.NoError(t, err)
	assert.Equal(t, []string{"Music"}, tags)

	_, err = f.svc.Interests.Add(f.ctx, me, "Music")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = f.svc.Interests.Add(f.ctx, me, "Knitting")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	tags, err = f.svc.Interests.Toggle(f.ctx, me, "Art")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Music", "Art"}, tags)

	tags, err = f.svc.Interests.Toggle(f.ctx, me, "Music")
	require.NoError(t, err)
	assert.Equal(t, []string{"Art"}, tags)

	tags, err = f.svc.Interests.Remove(f.ctx, me, "Art")
	require.NoError(t, err)
	assert.Empty(t, tags)

	_, err = f.svc.Interests.Remove(f.ctx, me, "Art")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	_, err = f.svc.Interests.List(f.ctx, session.Guest())
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestCatalogue(t *testing.T) {
	assert.Len(t, InterestCatalogue, 20)
	assert.True(t, IsCatalogued("Debate"))
	assert.False(t, IsCatalogued("debate"))
}

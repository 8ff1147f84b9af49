package category

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/transmission-savoirs/api/internal/types"
)

func TestCachedLookupRepo_SecondReadSkipsDB(t *testing.T) {
	inner := new(MockLookupRepo)
	cached := NewCachedLookupRepo(inner, time.Minute)

	inner.On("GetAllCategories", mock.Anything).
		Return([]types.Lookup{{ID: 1, Name: "Musique"}}, nil).Once()

	for i := 0; i < 3; i++ {
		items, err := cached.GetAllCategories(context.Background())
		require.NoError(t, err)
		assert.Len(t, items, 1)
	}
	inner.AssertNumberOfCalls(t, "GetAllCategories", 1)
}

func TestCachedLookupRepo_EmptyResultNotCached(t *testing.T) {
	inner := new(MockLookupRepo)
	cached := NewCachedLookupRepo(inner, time.Minute)

	inner.On("GetAllCategories", mock.Anything).Return([]types.Lookup{}, nil)

	_, _ = cached.GetAllCategories(context.Background())
	_, _ = cached.GetAllCategories(context.Background())

	inner.AssertNumberOfCalls(t, "GetAllCategories", 2)
}

func TestCachedLookupRepo_MutationInvalidates(t *testing.T) {
	inner := new(MockLookupRepo)
	cached := NewCachedLookupRepo(inner, time.Minute)

	inner.On("GetAllCategories", mock.Anything).
		Return([]types.Lookup{{ID: 1, Name: "Musique"}}, nil).Twice()
	inner.On("CreateCategory", mock.Anything, "Bricolage").
		Return(&types.Lookup{ID: 9, Name: "Bricolage"}, nil)

	_, err := cached.GetAllCategories(context.Background())
	require.NoError(t, err)

	_, err = cached.CreateCategory(context.Background(), "Bricolage")
	require.NoError(t, err)

	_, err = cached.GetAllCategories(context.Background())
	require.NoError(t, err)

	inner.AssertNumberOfCalls(t, "GetAllCategories", 2)
}

func TestCachedLookupRepo_FailedMutationKeepsCache(t *testing.T) {
	inner := new(MockLookupRepo)
	cached := NewCachedLookupRepo(inner, time.Minute)

	inner.On("GetAllCategories", mock.Anything).
		Return([]types.Lookup{{ID: 1, Name: "Musique"}}, nil).Once()
	inner.On("DeleteCategory", mock.Anything, 9).Return(nil, types.ErrNotFound)

	_, err := cached.GetAllCategories(context.Background())
	require.NoError(t, err)

	_, err = cached.DeleteCategory(context.Background(), 9)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = cached.GetAllCategories(context.Background())
	require.NoError(t, err)
	inner.AssertNumberOfCalls(t, "GetAllCategories", 1)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/resource-service/internal/apperrors"
	"github.com/Dan9191/resource-service/internal/models"
)

func TestCategoryCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.categories.Create(ctx, "   ")
	assert.EqualError(t, err, "name is required")

	music, err := f.categories.Create(ctx, "Music")
	require.NoError(t, err)
	_, err = f.categories.Create(ctx, "Art")
	require.NoError(t, err)

	list, err := f.categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Art", list[0].Name)

	renamed, err := f.categories.Update(ctx, music.ID, ptr(" Audio "))
	require.NoError(t, err)
	assert.Equal(t, models.Category{ID: music.ID, Name: "Audio"}, *renamed)

	unchanged, err := f.categories.Update(ctx, music.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Audio", unchanged.Name)

	_, err = f.categories.Update(ctx, music.ID, ptr(""))
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidInput))

	_, err = f.categories.Update(ctx, 404, ptr("X"))
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	require.NoError(t, f.categories.Delete(ctx, music.ID))

	f.actions.Wait()
	assert.ElementsMatch(t, []string{
		"Created category Music",
		"Created category Art",
		"Updated category 1",
		"Updated category 1",
		"Deleted category 1",
	}, f.store.actions())
}

func TestCategoryDelete_WithDependents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, categoryID := seed(t, f)

	_, err := f.resources.Create(ctx, CreateResourceInput{UserID: userID, CategoryID: categoryID, File: file("a.txt", "a")})
	require.NoError(t, err)

	err = f.categories.Delete(ctx, 1)
	assert.Equal(t, 400, apperrors.StatusCode(err))
	assert.Equal(t, apperrors.MsgHasDependents, apperrors.PublicMessage(err))

	list, err := f.categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1, "category row intact")
}

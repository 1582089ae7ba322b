package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivaaang/chieac-cms/pkg/domain"
)

func testArticle(id string) *domain.Article {
	return &domain.Article{
		ID:          id,
		Title:       "Hello World",
		MediumLink:  "https://chieac.medium.com/hello-world-abc1234def56",
		ImageLink:   "https://cdn-images-1.medium.com/max/1024/pic.png",
		Tags:        []string{"Education", "Community"},
		PublishedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestDB_CreateAndGetArticle(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	article := testArticle("article.abc1234def56")
	require.NoError(t, database.CreateArticle(ctx, article))

	stored, err := database.GetArticle(ctx, article.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, article.ID, stored.ID)
	assert.Equal(t, article.Title, stored.Title)
	assert.Equal(t, article.MediumLink, stored.MediumLink)
	assert.Equal(t, article.ImageLink, stored.ImageLink)
	assert.Equal(t, article.Tags, stored.Tags)
	assert.True(t, stored.PublishedAt.Equal(article.PublishedAt), "published_at mismatch: %v", stored.PublishedAt)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestDB_GetArticle_NotFound(t *testing.T) {
	database := setupTestDB(t)

	stored, err := database.GetArticle(context.Background(), "article.missing000")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDB_CreateArticle_EmptyOptionalFields(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	article := testArticle("article.0123456789ab")
	article.ImageLink = ""
	article.Tags = nil
	require.NoError(t, database.CreateArticle(ctx, article))

	stored, err := database.GetArticle(ctx, article.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Empty(t, stored.ImageLink)
	assert.Empty(t, stored.Tags)
}

func TestDB_CreateArticle_Duplicate(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	article := testArticle("article.abc1234def56")
	require.NoError(t, database.CreateArticle(ctx, article))

	err := database.CreateArticle(ctx, article)
	require.Error(t, err, "duplicate primary key must fail")
}

func TestDB_UpdateArticle(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	article := testArticle("article.abc1234def56")
	article.ImageLink = ""
	article.Tags = nil
	require.NoError(t, database.CreateArticle(ctx, article))

	// full payload rewrite on the update path
	article.ImageLink = "https://cdn-images-1.medium.com/max/1024/new.png"
	article.Tags = []string{"Tech News"}
	require.NoError(t, database.UpdateArticle(ctx, article))

	stored, err := database.GetArticle(ctx, article.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "https://cdn-images-1.medium.com/max/1024/new.png", stored.ImageLink)
	assert.Equal(t, []string{"Tech News"}, stored.Tags)
}

func TestDB_ListArticles(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		article := testArticle(fmt.Sprintf("article.%012d", i))
		article.Title = fmt.Sprintf("Post %d", i)
		article.PublishedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, database.CreateArticle(ctx, article))
	}

	t.Run("newest first", func(t *testing.T) {
		articles, err := database.ListArticles(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, articles, 5)
		assert.Equal(t, "Post 4", articles[0].Title)
		assert.Equal(t, "Post 0", articles[4].Title)
	})

	t.Run("limit and offset", func(t *testing.T) {
		articles, err := database.ListArticles(ctx, 2, 1)
		require.NoError(t, err)
		require.Len(t, articles, 2)
		assert.Equal(t, "Post 3", articles[0].Title)
		assert.Equal(t, "Post 2", articles[1].Title)
	})

	t.Run("count", func(t *testing.T) {
		count, err := database.CountArticles(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})
}

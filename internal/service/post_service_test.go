package service

import (
	"context"
	"regexp"
	"testing"

	"postblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

func TestPostService_Create(t *testing.T) {
	t.Parallel()

	t.Run("generates id and sets author", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var pushed models.Post
		var owner string
		repo.appendPostFn = func(_ context.Context, username string, p models.Post) (int64, error) {
			owner, pushed = username, p
			return 1, nil
		}
		svc := NewPostService(repo)

		post, err := svc.Create(context.Background(), CreatePostInput{Username: "alice", Title: strPtr("hello")})
		require.NoError(t, err)
		assert.Regexp(t, objectIDPattern, post.PostID)
		assert.Equal(t, "alice", post.Author)
		assert.Equal(t, "alice", owner)
		assert.Equal(t, post.PostID, pushed.PostID)
		assert.Nil(t, post.Description)
	})

	t.Run("ids are unique", func(t *testing.T) {
		t.Parallel()
		svc := NewPostService(noopUserRepo())
		a, err := svc.Create(context.Background(), CreatePostInput{Username: "alice"})
		require.NoError(t, err)
		b, err := svc.Create(context.Background(), CreatePostInput{Username: "alice"})
		require.NoError(t, err)
		assert.NotEqual(t, a.PostID, b.PostID)
	})

	t.Run("zero modified is a write failure", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.appendPostFn = func(context.Context, string, models.Post) (int64, error) { return 0, nil }
		svc := NewPostService(repo)

		_, err := svc.Create(context.Background(), CreatePostInput{Username: "alice"})
		assert.ErrorIs(t, err, models.ErrWriteFailure)
		assert.Equal(t, 500, models.HTTPStatus(err))
	})
}

func TestPostService_ListAll(t *testing.T) {
	t.Parallel()
	repo := noopUserRepo()
	repo.listFn = func(context.Context) ([]models.User, error) {
		return []models.User{
			{Username: "alice", Posts: []models.Post{{PostID: "a1"}, {PostID: "a2"}}},
			{Username: "bob"},
			{Username: "carol", Posts: []models.Post{{PostID: "c1"}}},
		}, nil
	}
	svc := NewPostService(repo)

	posts, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.PostID)
	}
	assert.Equal(t, []string{"a1", "a2", "c1"}, ids)

	empty, err := NewPostService(noopUserRepo()).ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)
}

func TestPostService_ListMine(t *testing.T) {
	t.Parallel()
	svc := NewPostService(noopUserRepo())

	assert.Len(t, svc.ListMine(&models.User{Posts: []models.Post{{PostID: "a"}}}), 1)
	assert.NotNil(t, svc.ListMine(&models.User{}))
}

func TestPostService_Update(t *testing.T) {
	t.Parallel()

	t.Run("empty patch", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.updatePostFn = func(context.Context, string, string, models.PostPatch) (int64, error) {
			t.Fatal("repository must not be called for an empty patch")
			return 0, nil
		}
		err := NewPostService(repo).Update(context.Background(), UpdatePostInput{Username: "alice", PostID: "p"})
		assert.ErrorIs(t, err, models.ErrEmptyUpdate)
		assert.Equal(t, 400, models.HTTPStatus(err))
	})

	t.Run("passes patch through", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var got models.PostPatch
		repo.updatePostFn = func(_ context.Context, username, postID string, patch models.PostPatch) (int64, error) {
			assert.Equal(t, "alice", username)
			assert.Equal(t, "p1", postID)
			got = patch
			return 1, nil
		}
		err := NewPostService(repo).Update(context.Background(), UpdatePostInput{
			Username: "alice", PostID: "p1", Patch: models.PostPatch{Title: strPtr("x")},
		})
		require.NoError(t, err)
		require.NotNil(t, got.Title)
		assert.Equal(t, "x", *got.Title)
		assert.Nil(t, got.Description)
	})

	t.Run("not matched", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.updatePostFn = func(context.Context, string, string, models.PostPatch) (int64, error) { return 0, nil }
		err := NewPostService(repo).Update(context.Background(), UpdatePostInput{
			Username: "bob", PostID: "p1", Patch: models.PostPatch{Title: strPtr("x")},
		})
		assert.ErrorIs(t, err, models.ErrPostNotFound)
	})
}

func TestPostService_Delete(t *testing.T) {
	t.Parallel()
	remaining := 1
	repo := noopUserRepo()
	repo.removePostFn = func(context.Context, string, string) (int64, error) {
		if remaining == 0 {
			return 0, nil
		}
		remaining--
		return 1, nil
	}
	svc := NewPostService(repo)
	in := DeletePostInput{Username: "alice", PostID: "p1"}

	require.NoError(t, svc.Delete(context.Background(), in))
	err := svc.Delete(context.Background(), in)
	assert.ErrorIs(t, err, models.ErrPostNotFound)
	assert.Equal(t, 404, models.HTTPStatus(err))
}

func TestPostService_Author(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		owners  []models.User
		want    *string
		wantErr error
	}{
		{"single owner", []models.User{{Username: "alice", FullName: strPtr("Alice A")}}, strPtr("Alice A"), nil},
		{"owner without full name", []models.User{{Username: "alice"}}, nil, nil},
		{"no owner", nil, nil, models.ErrPostNotFound},
		{"ambiguous", []models.User{{Username: "alice"}, {Username: "bob"}}, nil, models.ErrAmbiguousPost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := noopUserRepo()
			repo.findPostOwnersFn = func(_ context.Context, postID string, limit int) ([]models.User, error) {
				assert.Equal(t, "p1", postID)
				assert.Equal(t, 2, limit)
				return tt.owners, nil
			}

			got, err := NewPostService(repo).Author(context.Background(), "p1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

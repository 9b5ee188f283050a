package seed

import (
	"context"
	"testing"

	"postblog/internal/auth"
	"postblog/internal/repository"
	"postblog/internal/testkit"
	"postblog/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeeder_Run(t *testing.T) {
	ctx := context.Background()
	users := repository.NewGormUserRepository(testkit.NewSQLiteDB(t, repository.SQLSchema()...))
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)

	created, err := NewSeeder(users, hasher, 42).Run(ctx, Options{NumUsers: 3, PostsPerUser: 2})
	require.NoError(t, err)
	require.Len(t, created, 3)

	for _, u := range created {
		assert.NoError(t, validation.ValidateUsername(u.Username))
		assert.Len(t, u.Posts, 2)

		stored, err := users.GetByUsername(ctx, u.Username)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.True(t, hasher.Verify(DefaultPassword, stored.HashedPassword))
		assert.Len(t, stored.Posts, 2)
		for _, p := range stored.Posts {
			assert.Equal(t, u.Username, p.Author)
		}
	}

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSeeder_Username(t *testing.T) {
	s := NewSeeder(nil, nil, 7)
	for i := 0; i < 50; i++ {
		assert.NoError(t, validation.ValidateUsername(s.username()))
	}
}

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
)

func seedUser(t *testing.T, db *gorm.DB, name, email string) *domain.User {
	t.Helper()
	repo := NewGormUserRepository(db)
	user := &domain.User{Name: name, Email: email, PasswordHash: "x"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestChannelCreateAddsCreatorAsMember(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormChannelRepository(db)
	creator := seedUser(t, db, "Alice", "alice@example.com")

	channel := &domain.Channel{Name: "general"}
	require.NoError(t, repo.Create(context.Background(), channel, creator.ID))
	require.NotEmpty(t, channel.ID)

	ids, err := repo.MemberIDs(context.Background(), channel.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{creator.ID}, ids)
}

func TestChannelCreateDuplicateName(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormChannelRepository(db)
	creator := seedUser(t, db, "Alice", "alice@example.com")

	require.NoError(t, repo.Create(context.Background(), &domain.Channel{Name: "general"}, creator.ID))

	err := repo.Create(context.Background(), &domain.Channel{Name: "general"}, creator.ID)
	assert.ErrorIs(t, err, ErrChannelExists)
}

func TestChannelAddMember(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormChannelRepository(db)
	creator := seedUser(t, db, "Alice", "alice@example.com")
	joiner := seedUser(t, db, "Bob", "bob@example.com")

	channel := &domain.Channel{Name: "general"}
	require.NoError(t, repo.Create(context.Background(), channel, creator.ID))

	added, err := repo.AddMember(context.Background(), channel.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, added)

	// Joining again is a no-op, not an error.
	added, err = repo.AddMember(context.Background(), channel.ID, joiner.ID)
	require.NoError(t, err)
	assert.False(t, added)

	ids, err := repo.MemberIDs(context.Background(), channel.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{creator.ID, joiner.ID}, ids)
}

func TestChannelAddMemberUnknownChannel(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormChannelRepository(db)
	user := seedUser(t, db, "Alice", "alice@example.com")

	_, err := repo.AddMember(context.Background(), "missing", user.ID)
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestChannelRemoveMember(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormChannelRepository(db)
	creator := seedUser(t, db, "Alice", "alice@example.com")

	channel := &domain.Channel{Name: "general"}
	require.NoError(t, repo.Create(context.Background(), channel, creator.ID))

	require.NoError(t, repo.RemoveMember(context.Background(), channel.ID, creator.ID))

	ids, err := repo.MemberIDs(context.Background(), channel.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Removing a non-member is a no-op.
	require.NoError(t, repo.RemoveMember(context.Background(), channel.ID, creator.ID))
}

func TestChannelListPopulatesMembers(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormChannelRepository(db)
	creator := seedUser(t, db, "Alice", "alice@example.com")

	channel := &domain.Channel{Name: "general"}
	require.NoError(t, repo.Create(context.Background(), channel, creator.ID))

	channels, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 1)
	require.Len(t, channels[0].Members, 1)
	assert.Equal(t, creator.ID, channels[0].Members[0].ID)
	assert.Equal(t, "Alice", channels[0].Members[0].Name)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)

	require.NoError(t, repo.Create(context.Background(), &domain.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x"}))

	err := repo.Create(context.Background(), &domain.User{Name: "Other", Email: "alice@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserListByIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	a := seedUser(t, db, "Alice", "alice@example.com")
	seedUser(t, db, "Bob", "bob@example.com")

	users, err := repo.ListByIDs(context.Background(), []string{a.ID})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Name)

	users, err = repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

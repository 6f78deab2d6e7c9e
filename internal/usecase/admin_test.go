package usecase_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
	"github.com/pathfinderhq/pathfinder-backend/internal/usecase"
)

type fakeUserRepo struct {
	users map[string]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[string]domain.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(_ domain.Context, u domain.User) (string, error) {
	f.users[u.ID] = u
	return u.ID, nil
}

func (f *fakeUserRepo) GetByEmail(_ domain.Context, email string) (domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("op=fake.get_by_email: %w", domain.ErrNotFound)
}

func (f *fakeUserRepo) Get(_ domain.Context, id string) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("op=fake.get: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUserRepo) SetRole(_ domain.Context, id, role string) error {
	u := f.users[id]
	u.Role = role
	f.users[id] = u
	return nil
}

func (f *fakeUserRepo) SetBanned(_ domain.Context, id string, banned bool) error {
	u := f.users[id]
	u.Banned = banned
	f.users[id] = u
	return nil
}

func TestModerateUser_Actions(t *testing.T) {
	t.Parallel()
	cases := []struct {
		action     string
		wantRole   string
		wantBanned bool
	}{
		{usecase.ActionBan, domain.RoleUser, true},
		{usecase.ActionUnban, domain.RoleUser, false},
		{usecase.ActionPromote, domain.RoleAdmin, false},
		{usecase.ActionDemote, domain.RoleUser, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.action, func(t *testing.T) {
			t.Parallel()
			repo := newFakeUserRepo(domain.User{ID: "u2", Email: "target@example.com", Role: domain.RoleUser})
			svc := usecase.NewAdminService(repo)

			updated, err := svc.ModerateUser(context.Background(), "u1", "u2", tc.action)
			require.NoError(t, err)
			assert.Equal(t, tc.wantRole, updated.Role)
			assert.Equal(t, tc.wantBanned, updated.Banned)
		})
	}
}

func TestModerateUser_SelfForbidden(t *testing.T) {
	t.Parallel()
	repo := newFakeUserRepo(domain.User{ID: "u1", Role: domain.RoleAdmin})
	svc := usecase.NewAdminService(repo)

	_, err := svc.ModerateUser(context.Background(), "u1", "u1", usecase.ActionBan)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestModerateUser_UnknownTarget(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAdminService(newFakeUserRepo())

	_, err := svc.ModerateUser(context.Background(), "u1", "ghost", usecase.ActionBan)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestModerateUser_UnknownAction(t *testing.T) {
	t.Parallel()
	repo := newFakeUserRepo(domain.User{ID: "u2"})
	svc := usecase.NewAdminService(repo)

	_, err := svc.ModerateUser(context.Background(), "u1", "u2", "obliterate")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.False(t, repo.users["u2"].Banned)
}

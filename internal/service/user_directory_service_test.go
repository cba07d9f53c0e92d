package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/internal/models"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
)

type memoryUserDirectory struct {
	users    map[string]*models.User
	audits   []*models.AuditLog
	nextID   int
	failList error
}

func newMemoryUserDirectory(users ...models.User) *memoryUserDirectory {
	m := &memoryUserDirectory{users: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		m.users[u.ID] = &u
	}
	return m
}

func (m *memoryUserDirectory) ListAll(ctx context.Context) ([]models.User, error) {
	if m.failList != nil {
		return nil, m.failList
	}
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memoryUserDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUserDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryUserDirectory) Create(ctx context.Context, user *models.User) error {
	m.nextID++
	user.ID = "new-" + string(rune('0'+m.nextID))
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryUserDirectory) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryUserDirectory) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *memoryUserDirectory) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) {
	c.calls++
}

func directoryUsers() []models.User {
	return []models.User{
		{ID: "1", FullName: "Ana Torres", Email: "ana@swiaape.edu.pe", Role: models.RoleAdmin, Status: models.UserStatusActive},
		{ID: "2", FullName: "Beto Ruiz", Email: "beto@swiaape.edu.pe", Role: models.RoleTeacher, Status: models.UserStatusInactive, Courses: []string{"c1"}},
		{ID: "3", FullName: "Carla Nunez", Email: "carla@swiaape.edu.pe", Role: models.RoleStudent, Status: models.UserStatusPending},
	}
}

func TestFilterUsers(t *testing.T) {
	users := directoryUsers()

	cases := []struct {
		name   string
		filter models.UserFilter
		want   []string
	}{
		{name: "no criteria", filter: models.UserFilter{}, want: []string{"1", "2", "3"}},
		{name: "all keyword", filter: models.UserFilter{Role: "all", Status: "all"}, want: []string{"1", "2", "3"}},
		{name: "search by name ignores case", filter: models.UserFilter{Search: "  beTO "}, want: []string{"2"}},
		{name: "search by email", filter: models.UserFilter{Search: "carla@"}, want: []string{"3"}},
		{name: "role", filter: models.UserFilter{Role: "teacher"}, want: []string{"2"}},
		{name: "status", filter: models.UserFilter{Status: "Pending"}, want: []string{"3"}},
		{name: "combined without match", filter: models.UserFilter{Search: "ana", Role: "student"}, want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterUsers(users, tc.filter)
			ids := make([]string, 0, len(got))
			for _, u := range got {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestAddUser(t *testing.T) {
	repo := newMemoryUserDirectory(directoryUsers()...)
	dash := &countingInvalidator{}
	svc := NewUserDirectoryService(repo, dash, nil, nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, dto.CreateUserRequest{FullName: "Dora", Email: "", Role: "teacher", TempPassword: "x"}, "1", models.RequestMeta{})
	assert.Equal(t, "please fill in all fields", messageOf(err))

	_, err = svc.Add(ctx, dto.CreateUserRequest{FullName: "Dora", Email: "ANA@swiaape.edu.pe", Role: "teacher", TempPassword: "x"}, "1", models.RequestMeta{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict.Code))

	_, err = svc.Add(ctx, dto.CreateUserRequest{FullName: "Dora", Email: "dora@swiaape.edu.pe", Role: "janitor", TempPassword: "x"}, "1", models.RequestMeta{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	user, err := svc.Add(ctx, dto.CreateUserRequest{FullName: " Dora Vega ", Email: "Dora@swiaape.edu.pe", Role: "teacher", TempPassword: "Temp#2024"}, "1", models.RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "Dora Vega", user.FullName)
	assert.Equal(t, "dora@swiaape.edu.pe", user.Email)
	assert.Equal(t, models.UserStatusPending, user.Status)
	assert.NotNil(t, user.Courses)
	assert.Empty(t, user.Courses)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Temp#2024")))

	assert.Equal(t, 1, dash.calls)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.audits[0].Action)
	assert.Equal(t, "10.0.0.1", repo.audits[0].IPAddress)
}

func TestUpdateUserKeepsCoursesOnlyForTeachers(t *testing.T) {
	repo := newMemoryUserDirectory(directoryUsers()...)
	svc := NewUserDirectoryService(repo, nil, nil, nil)
	ctx := context.Background()

	user, err := svc.Update(ctx, "2", dto.UpdateUserRequest{FullName: "Beto Ruiz", Email: "beto@swiaape.edu.pe", Role: "teacher", Courses: []string{"c1", "c2"}}, "1", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, []string(user.Courses))

	user, err = svc.Update(ctx, "2", dto.UpdateUserRequest{FullName: "Beto Ruiz", Email: "beto@swiaape.edu.pe", Role: "admin", Courses: []string{"c1"}}, "1", models.RequestMeta{})
	require.NoError(t, err)
	assert.Nil(t, user.Courses)

	_, err = svc.Update(ctx, "2", dto.UpdateUserRequest{FullName: "Beto Ruiz", Email: "ana@swiaape.edu.pe", Role: "admin"}, "1", models.RequestMeta{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict.Code))

	_, err = svc.Update(ctx, "99", dto.UpdateUserRequest{FullName: "Nobody", Email: "nobody@swiaape.edu.pe", Role: "admin"}, "1", models.RequestMeta{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestToggleStatus(t *testing.T) {
	repo := newMemoryUserDirectory(directoryUsers()...)
	dash := &countingInvalidator{}
	svc := NewUserDirectoryService(repo, dash, nil, nil)
	ctx := context.Background()

	user, err := svc.ToggleStatus(ctx, "1", "1", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusInactive, user.Status)

	user, err = svc.ToggleStatus(ctx, "2", "1", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, user.Status)

	user, err = svc.ToggleStatus(ctx, "3", "1", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusPending, user.Status)

	assert.Equal(t, 2, dash.calls)
	assert.Len(t, repo.audits, 2)
}

func TestDeleteUserRequiresConfirmation(t *testing.T) {
	repo := newMemoryUserDirectory(directoryUsers()...)
	dash := &countingInvalidator{}
	svc := NewUserDirectoryService(repo, dash, nil, nil)
	ctx := context.Background()

	err := svc.Delete(ctx, "3", false, "1", models.RequestMeta{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrPreconditionFailed.Code))
	assert.Equal(t, "confirm the deletion to continue", messageOf(err))
	assert.Len(t, repo.users, 3)

	require.NoError(t, svc.Delete(ctx, "3", true, "1", models.RequestMeta{}))
	assert.Len(t, repo.users, 2)
	assert.Equal(t, 1, dash.calls)

	err = svc.Delete(ctx, "3", true, "1", models.RequestMeta{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestListUsersPropagatesStoreFailure(t *testing.T) {
	repo := newMemoryUserDirectory()
	repo.failList = errors.New("db down")
	svc := NewUserDirectoryService(repo, nil, nil, nil)

	_, err := svc.List(context.Background(), dto.UserListQuery{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal.Code))
}

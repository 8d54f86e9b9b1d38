package memory

import (
	"context"
	"testing"
	"time"

	"userapi/internal/apperr"
	"userapi/internal/entity"
	"userapi/internal/entity/db"
)

func strPtr(s string) *string { return &s }

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo := NewRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	repo.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	return repo
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateUser(ctx, &db.User{Email: "a@x.com"}, nil); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	err := repo.CreateUser(ctx, &db.User{Email: "A@X.com"}, nil)
	if !apperr.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if se, _ := err.(*apperr.StoreError); se.Field() != "email" {
		t.Fatalf("expected target email, got %q", se.Field())
	}
}

func TestCreateUserUnknownRoleLeavesNoUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.CreateUser(ctx, &db.User{Email: "a@x.com"}, []uint{42})
	code, ok := apperr.StoreCodeOf(err)
	if !ok || code != apperr.CodeForeignKeyViolation {
		t.Fatalf("expected foreign key violation, got %v", err)
	}
	total, _ := repo.CountUsers(ctx, "")
	if total != 0 {
		t.Fatalf("expected no users, got %d", total)
	}
}

func TestFindUsersSearchSortAndPage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []struct {
		email string
		name  *string
	}{
		{"dan@x.com", strPtr("Dan")},
		{"bob@x.com", strPtr("Bob")},
		{"ann@x.com", strPtr("ANNA")},
		{"zed@brand.io", nil},
	}
	for _, s := range seed {
		if err := repo.CreateUser(ctx, &db.User{Email: s.email, Name: s.name}, nil); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	total, err := repo.CountUsers(ctx, "AN")
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 matches for AN, got %d", total)
	}

	users, err := repo.FindUsers(ctx, entity.UserFilter{Search: "an", SortBy: entity.UserSortEmail, Limit: 2})
	if err != nil {
		t.Fatalf("FindUsers: %v", err)
	}
	if len(users) != 2 || users[0].Email != "ann@x.com" || users[1].Email != "dan@x.com" {
		t.Fatalf("unexpected page: %+v", users)
	}

	users, err = repo.FindUsers(ctx, entity.UserFilter{SortBy: entity.UserSortCreatedAt, SortDesc: true, Offset: 1, Limit: 10})
	if err != nil {
		t.Fatalf("FindUsers: %v", err)
	}
	if len(users) != 3 || users[0].Email != "ann@x.com" {
		t.Fatalf("unexpected desc page: %+v", users)
	}

	if _, err := repo.FindUsers(ctx, entity.UserFilter{SortBy: "password"}); err == nil {
		t.Fatalf("expected error for unknown sort field")
	}
}

func TestDeleteUserCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	role := &db.Role{RoleName: "admin"}
	if err := repo.CreateRole(ctx, role); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	user := &db.User{Email: "a@x.com"}
	if err := repo.CreateUser(ctx, user, []uint{role.ID}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := repo.CreatePost(ctx, &db.Post{Title: "hello", AuthorID: user.ID}); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if err := repo.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	posts, _ := repo.ListPosts(ctx)
	if len(posts) != 0 {
		t.Fatalf("expected posts removed, got %d", len(posts))
	}
	loaded, _ := repo.GetRoleByID(ctx, role.ID)
	if len(loaded.Users) != 0 {
		t.Fatalf("expected role links removed, got %d", len(loaded.Users))
	}

	if err := repo.DeleteUser(ctx, user.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestAssignRoles(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := &db.User{Email: "a@x.com"}
	_ = repo.CreateUser(ctx, user, nil)
	r1, r2 := &db.Role{RoleName: "a"}, &db.Role{RoleName: "b"}
	_ = repo.CreateRole(ctx, r1)
	_ = repo.CreateRole(ctx, r2)

	links, err := repo.AssignRoles(ctx, user.ID, []uint{r2.ID, r1.ID, r2.ID})
	if err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}
	if len(links) != 2 || links[0].RoleID != r1.ID || links[0].Role == nil || links[0].User == nil {
		t.Fatalf("unexpected links: %+v", links)
	}

	if _, err := repo.AssignRoles(ctx, user.ID, []uint{r1.ID}); !apperr.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation on reassign, got %v", err)
	}
	if _, err := repo.AssignRoles(ctx, 999, []uint{r1.ID}); err == nil {
		t.Fatalf("expected error for unknown user")
	}

	if err := repo.RemoveUserRole(ctx, user.ID, r1.ID); err != nil {
		t.Fatalf("RemoveUserRole: %v", err)
	}
	if err := repo.RemoveUserRole(ctx, user.ID, r1.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	remaining, _ := repo.ListUserRoles(ctx, user.ID)
	if len(remaining) != 1 || remaining[0].RoleID != r2.ID {
		t.Fatalf("unexpected remaining links: %+v", remaining)
	}
}

func TestUpdateUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := &db.User{Email: "a@x.com"}
	b := &db.User{Email: "b@x.com"}
	_ = repo.CreateUser(ctx, a, nil)
	_ = repo.CreateUser(ctx, b, nil)

	if err := repo.UpdateUser(ctx, b.ID, entity.UserUpdates{Email: strPtr("a@x.com")}); !apperr.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if err := repo.UpdateUser(ctx, 99, entity.UserUpdates{Name: strPtr("x")}); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.UpdateUser(ctx, a.ID, entity.UserUpdates{Name: strPtr("Alice")}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	got, _ := repo.GetUserByID(ctx, a.ID, entity.UserIncludes{})
	if got.Name == nil || *got.Name != "Alice" || !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestCanceledContext(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.CountUsers(ctx, "")
	code, ok := apperr.StoreCodeOf(err)
	if !ok || code != apperr.CodeTimeout {
		t.Fatalf("expected timeout code, got %v", err)
	}
}

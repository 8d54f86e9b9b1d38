// Package memory provides a process-local Repository used by tests and by
// DB_TYPE=memory. It mirrors the constraint behaviour of the SQL stores.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"userapi/internal/apperr"
	"userapi/internal/entity"
	"userapi/internal/entity/db"
)

const (
	modelUser     = "users"
	modelRole     = "roles"
	modelUserRole = "user_roles"
	modelPost     = "posts"
)

var errNotFound = errors.New("record not found")

type linkKey struct {
	userID uint
	roleID uint
}

// Repository is a mutex-guarded in-memory store.
type Repository struct {
	mu sync.RWMutex

	users map[uint]db.User
	roles map[uint]db.Role
	posts map[uint]db.Post
	links map[linkKey]db.UserRole

	nextUserID uint
	nextRoleID uint
	nextPostID uint

	now func() time.Time
}

// NewRepository creates an empty store.
func NewRepository() *Repository {
	return &Repository{
		users: make(map[uint]db.User),
		roles: make(map[uint]db.Role),
		posts: make(map[uint]db.Post),
		links: make(map[linkKey]db.UserRole),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source.
func (r *Repository) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *Repository) Ping(ctx context.Context) error {
	return ctxErr(ctx, "")
}

func (r *Repository) Close() error { return nil }

// ---- users ----

func (r *Repository) FindUsers(ctx context.Context, filter entity.UserFilter) ([]db.User, error) {
	if err := ctxErr(ctx, modelUser); err != nil {
		return nil, err
	}
	if _, ok := entity.UserSortColumns[filter.SortBy]; !ok {
		return nil, fmt.Errorf("unsupported sort field %q", filter.SortBy)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.matchUsers(filter.Search)
	sort.SliceStable(matched, func(i, j int) bool {
		c := compareUsers(&matched[i], &matched[j], filter.SortBy)
		if c == 0 {
			return matched[i].ID < matched[j].ID
		}
		if filter.SortDesc {
			return c > 0
		}
		return c < 0
	})

	if filter.Offset >= len(matched) {
		return []db.User{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	out := make([]db.User, 0, len(matched))
	for i := range matched {
		out = append(out, r.loadUser(matched[i], filter.Include))
	}
	return out, nil
}

func (r *Repository) CountUsers(ctx context.Context, search string) (int64, error) {
	if err := ctxErr(ctx, modelUser); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.matchUsers(search))), nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uint, include entity.UserIncludes) (*db.User, error) {
	if err := ctxErr(ctx, modelUser); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, apperr.NewStoreError(apperr.CodeNotFound, modelUser, errNotFound)
	}
	loaded := r.loadUser(user, include)
	return &loaded, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string, include entity.UserIncludes) (*db.User, error) {
	if err := ctxErr(ctx, modelUser); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return nil, fmt.Errorf("email is empty")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.userByEmail(trimmed)
	if !ok {
		return nil, apperr.NewStoreError(apperr.CodeNotFound, modelUser, errNotFound)
	}
	loaded := r.loadUser(user, include)
	return &loaded, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *db.User, roleIDs []uint) error {
	if err := ctxErr(ctx, modelUser); err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	if strings.TrimSpace(user.Email) == "" {
		return apperr.NewStoreError(apperr.CodeRequiredFieldMissing, modelUser, errors.New("email is null"), "email")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.userByEmail(user.Email); exists {
		return apperr.NewStoreError(apperr.CodeUniqueViolation, modelUser, errors.New("duplicate email"), "email")
	}
	ids := uniqueIDs(roleIDs)
	if err := r.requireRoles(ids); err != nil {
		return err
	}

	r.nextUserID++
	now := r.now()
	stored := *user
	stored.ID = r.nextUserID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Roles = nil
	stored.Posts = nil
	r.users[stored.ID] = stored

	for _, roleID := range ids {
		r.links[linkKey{stored.ID, roleID}] = db.UserRole{UserID: stored.ID, RoleID: roleID, AssignedAt: now}
	}

	user.ID = stored.ID
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *Repository) UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error {
	if err := ctxErr(ctx, modelUser); err != nil {
		return err
	}
	if updates.IsEmpty() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return apperr.NewStoreError(apperr.CodeNotFound, modelUser, errNotFound)
	}
	if updates.Email != nil {
		if other, exists := r.userByEmail(*updates.Email); exists && other.ID != id {
			return apperr.NewStoreError(apperr.CodeUniqueViolation, modelUser, errors.New("duplicate email"), "email")
		}
		user.Email = *updates.Email
	}
	if updates.Name != nil {
		name := *updates.Name
		user.Name = &name
	}
	if updates.PasswordHash != nil {
		user.PasswordHash = *updates.PasswordHash
	}
	user.UpdatedAt = r.now()
	r.users[id] = user
	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, id uint) error {
	if err := ctxErr(ctx, modelUser); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperr.NewStoreError(apperr.CodeNotFound, modelUser, errNotFound)
	}
	for key := range r.links {
		if key.userID == id {
			delete(r.links, key)
		}
	}
	for postID, post := range r.posts {
		if post.AuthorID == id {
			delete(r.posts, postID)
		}
	}
	delete(r.users, id)
	return nil
}

// ---- roles ----

func (r *Repository) ListRoles(ctx context.Context) ([]db.Role, error) {
	if err := ctxErr(ctx, modelRole); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint, 0, len(r.roles))
	for id := range r.roles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]db.Role, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.loadRole(r.roles[id]))
	}
	return out, nil
}

func (r *Repository) GetRoleByID(ctx context.Context, id uint) (*db.Role, error) {
	if err := ctxErr(ctx, modelRole); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, apperr.NewStoreError(apperr.CodeNotFound, modelRole, errNotFound)
	}
	loaded := r.loadRole(role)
	return &loaded, nil
}

func (r *Repository) CreateRole(ctx context.Context, role *db.Role) error {
	if err := ctxErr(ctx, modelRole); err != nil {
		return err
	}
	if role == nil {
		return fmt.Errorf("role is nil")
	}
	if strings.TrimSpace(role.RoleName) == "" {
		return apperr.NewStoreError(apperr.CodeRequiredFieldMissing, modelRole, errors.New("role_name is null"), "roleName")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextRoleID++
	stored := *role
	stored.ID = r.nextRoleID
	stored.CreatedAt = r.now()
	stored.Users = nil
	r.roles[stored.ID] = stored

	role.ID = stored.ID
	role.CreatedAt = stored.CreatedAt
	return nil
}

func (r *Repository) DeleteRole(ctx context.Context, id uint) error {
	if err := ctxErr(ctx, modelRole); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return apperr.NewStoreError(apperr.CodeNotFound, modelRole, errNotFound)
	}
	for key := range r.links {
		if key.roleID == id {
			delete(r.links, key)
		}
	}
	delete(r.roles, id)
	return nil
}

// ---- user roles ----

func (r *Repository) AssignRoles(ctx context.Context, userID uint, roleIDs []uint) ([]db.UserRole, error) {
	if err := ctxErr(ctx, modelUserRole); err != nil {
		return nil, err
	}
	ids := uniqueIDs(roleIDs)
	if len(ids) == 0 {
		return []db.UserRole{}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return nil, apperr.NewStoreError(apperr.CodeForeignKeyViolation, modelUserRole, fmt.Errorf("user %d does not exist", userID), "userId")
	}
	if err := r.requireRoles(ids); err != nil {
		return nil, err
	}
	for _, roleID := range ids {
		if _, exists := r.links[linkKey{userID, roleID}]; exists {
			return nil, apperr.NewStoreError(apperr.CodeUniqueViolation, modelUserRole, errors.New("duplicate assignment"), "userId", "roleId")
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	now := r.now()
	user := r.users[userID]
	out := make([]db.UserRole, 0, len(ids))
	for _, roleID := range ids {
		link := db.UserRole{UserID: userID, RoleID: roleID, AssignedAt: now}
		r.links[linkKey{userID, roleID}] = link

		u := user
		role := r.roles[roleID]
		link.User = &u
		link.Role = &role
		out = append(out, link)
	}
	return out, nil
}

func (r *Repository) ListUserRoles(ctx context.Context, userID uint) ([]db.UserRole, error) {
	if err := ctxErr(ctx, modelUserRole); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.userLinks(userID), nil
}

func (r *Repository) RemoveUserRole(ctx context.Context, userID, roleID uint) error {
	if err := ctxErr(ctx, modelUserRole); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := linkKey{userID, roleID}
	if _, ok := r.links[key]; !ok {
		return apperr.NewStoreError(apperr.CodeNotFound, modelUserRole, errNotFound)
	}
	delete(r.links, key)
	return nil
}

// ---- posts ----

func (r *Repository) ListPosts(ctx context.Context) ([]db.Post, error) {
	if err := ctxErr(ctx, modelPost); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint, 0, len(r.posts))
	for id := range r.posts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]db.Post, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.loadPost(r.posts[id]))
	}
	return out, nil
}

func (r *Repository) GetPostByID(ctx context.Context, id uint) (*db.Post, error) {
	if err := ctxErr(ctx, modelPost); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, apperr.NewStoreError(apperr.CodeNotFound, modelPost, errNotFound)
	}
	loaded := r.loadPost(post)
	return &loaded, nil
}

func (r *Repository) CreatePost(ctx context.Context, post *db.Post) error {
	if err := ctxErr(ctx, modelPost); err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post is nil")
	}
	if strings.TrimSpace(post.Title) == "" {
		return apperr.NewStoreError(apperr.CodeRequiredFieldMissing, modelPost, errors.New("title is null"), "title")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[post.AuthorID]; !ok {
		return apperr.NewStoreError(apperr.CodeForeignKeyViolation, modelPost, fmt.Errorf("user %d does not exist", post.AuthorID), "authorId")
	}

	r.nextPostID++
	now := r.now()
	stored := *post
	stored.ID = r.nextPostID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Author = nil
	r.posts[stored.ID] = stored

	post.ID = stored.ID
	post.CreatedAt = now
	post.UpdatedAt = now
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id uint) error {
	if err := ctxErr(ctx, modelPost); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return apperr.NewStoreError(apperr.CodeNotFound, modelPost, errNotFound)
	}
	delete(r.posts, id)
	return nil
}

// ---- helpers (callers hold the lock) ----

func (r *Repository) matchUsers(search string) []db.User {
	kw := strings.ToLower(search)
	out := make([]db.User, 0, len(r.users))
	for _, u := range r.users {
		if kw == "" || strings.Contains(strings.ToLower(u.Email), kw) ||
			(u.Name != nil && strings.Contains(strings.ToLower(*u.Name), kw)) {
			out = append(out, u)
		}
	}
	return out
}

func (r *Repository) userByEmail(email string) (db.User, bool) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, true
		}
	}
	return db.User{}, false
}

func (r *Repository) requireRoles(ids []uint) error {
	for _, id := range ids {
		if _, ok := r.roles[id]; !ok {
			return apperr.NewStoreError(apperr.CodeForeignKeyViolation, modelUserRole, fmt.Errorf("role %d does not exist", id), "roleId")
		}
	}
	return nil
}

func (r *Repository) userLinks(userID uint) []db.UserRole {
	out := make([]db.UserRole, 0)
	for key, link := range r.links {
		if key.userID != userID {
			continue
		}
		if role, ok := r.roles[key.roleID]; ok {
			link.Role = &role
		}
		out = append(out, link)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoleID < out[j].RoleID })
	return out
}

func (r *Repository) loadUser(user db.User, include entity.UserIncludes) db.User {
	if include.Roles {
		user.Roles = r.userLinks(user.ID)
	}
	if include.Posts {
		posts := make([]db.Post, 0)
		for _, p := range r.posts {
			if p.AuthorID == user.ID {
				posts = append(posts, p)
			}
		}
		sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
		user.Posts = posts
	}
	return user
}

func (r *Repository) loadRole(role db.Role) db.Role {
	users := make([]db.UserRole, 0)
	for key, link := range r.links {
		if key.roleID != role.ID {
			continue
		}
		if u, ok := r.users[key.userID]; ok {
			link.User = &u
		}
		users = append(users, link)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	role.Users = users
	return role
}

func (r *Repository) loadPost(post db.Post) db.Post {
	if author, ok := r.users[post.AuthorID]; ok {
		post.Author = &author
	}
	return post
}

// compareUsers 按对外排序字段比较，NULL 名称排在最前
func compareUsers(a, b *db.User, field string) int {
	switch field {
	case entity.UserSortID:
		return compareUint(a.ID, b.ID)
	case entity.UserSortEmail:
		return strings.Compare(a.Email, b.Email)
	case entity.UserSortName:
		switch {
		case a.Name == nil && b.Name == nil:
			return 0
		case a.Name == nil:
			return -1
		case b.Name == nil:
			return 1
		}
		return strings.Compare(*a.Name, *b.Name)
	case entity.UserSortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareUint(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func uniqueIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func ctxErr(ctx context.Context, model string) error {
	if err := ctx.Err(); err != nil {
		return apperr.NewStoreError(apperr.CodeTimeout, model, err)
	}
	return nil
}

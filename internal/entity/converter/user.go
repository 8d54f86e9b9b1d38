package converter

import (
	"userapi/internal/entity/db"
	"userapi/internal/entity/dto"
)

// UserToResponse converts a db.User to dto.UserResponse. Roles and posts are only
// emitted when they were loaded; a loaded empty relation becomes [].
func UserToResponse(u *db.User) dto.UserResponse {
	if u == nil {
		return dto.UserResponse{}
	}
	resp := dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Roles != nil {
		roles := UserRolesToResponses(u.Roles)
		resp.Roles = &roles
	}
	if u.Posts != nil {
		posts := PostsToResponses(u.Posts)
		resp.Posts = &posts
	}
	return resp
}

// UsersToResponses converts a slice of db.User.
func UsersToResponses(users []db.User) []dto.UserResponse {
	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = UserToResponse(&users[i])
	}
	return out
}

// RoleToResponse converts a db.Role.
func RoleToResponse(r *db.Role) dto.RoleResponse {
	if r == nil {
		return dto.RoleResponse{}
	}
	resp := dto.RoleResponse{
		ID:          r.ID,
		RoleName:    r.RoleName,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
	if r.Users != nil {
		users := UserRolesToResponses(r.Users)
		resp.Users = &users
	}
	return resp
}

// RolesToResponses converts a slice of db.Role.
func RolesToResponses(roles []db.Role) []dto.RoleResponse {
	out := make([]dto.RoleResponse, len(roles))
	for i := range roles {
		out[i] = RoleToResponse(&roles[i])
	}
	return out
}

// UserRoleToResponse converts an assignment including whichever side was loaded.
func UserRoleToResponse(ur *db.UserRole) dto.UserRoleResponse {
	if ur == nil {
		return dto.UserRoleResponse{}
	}
	resp := dto.UserRoleResponse{
		UserID:     ur.UserID,
		RoleID:     ur.RoleID,
		AssignedAt: ur.AssignedAt,
	}
	if ur.User != nil {
		user := UserToResponse(ur.User)
		resp.User = &user
	}
	if ur.Role != nil {
		role := RoleToResponse(ur.Role)
		resp.Role = &role
	}
	return resp
}

// UserRolesToResponses converts a slice of db.UserRole.
func UserRolesToResponses(items []db.UserRole) []dto.UserRoleResponse {
	out := make([]dto.UserRoleResponse, len(items))
	for i := range items {
		out[i] = UserRoleToResponse(&items[i])
	}
	return out
}

// PostToResponse converts a db.Post.
func PostToResponse(p *db.Post) dto.PostResponse {
	if p == nil {
		return dto.PostResponse{}
	}
	resp := dto.PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Published: p.Published,
		AuthorID:  p.AuthorID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Author != nil {
		author := UserToResponse(p.Author)
		resp.Author = &author
	}
	return resp
}

// PostsToResponses converts a slice of db.Post.
func PostsToResponses(posts []db.Post) []dto.PostResponse {
	out := make([]dto.PostResponse, len(posts))
	for i := range posts {
		out[i] = PostToResponse(&posts[i])
	}
	return out
}

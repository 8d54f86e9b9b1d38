package entity

// 用户列表可排序字段（对外名称）
const (
	UserSortID        = "id"
	UserSortEmail     = "email"
	UserSortName      = "name"
	UserSortCreatedAt = "createdAt"
	UserSortUpdatedAt = "updatedAt"
)

// UserSortColumns 对外排序字段到数据库列的映射
var UserSortColumns = map[string]string{
	UserSortID:        "id",
	UserSortEmail:     "email",
	UserSortName:      "name",
	UserSortCreatedAt: "created_at",
	UserSortUpdatedAt: "updated_at",
}

// UserIncludes 控制需要一并加载的关联数据
type UserIncludes struct {
	Roles bool
	Posts bool
}

// UserFilter 是仓库层执行用户列表查询所需的全部条件。
//
// Search 为空表示不过滤；SortBy 必须是 UserSortColumns 的键。
type UserFilter struct {
	Search   string
	SortBy   string
	SortDesc bool
	Offset   int
	Limit    int
	Include  UserIncludes
}

package db

import "time"

// Role 角色定义。
type Role struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	RoleName    string    `gorm:"column:role_name;type:varchar(100);not null" json:"roleName"`
	Description *string   `gorm:"column:description;type:varchar(500)" json:"description"`

	Users []UserRole `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"users,omitempty"`
}

// TableName 指定表名
func (Role) TableName() string {
	return "roles"
}

// UserRole 用户与角色的关联表，(user_id, role_id) 为复合主键。
type UserRole struct {
	UserID     uint      `gorm:"primaryKey" json:"userId"`
	RoleID     uint      `gorm:"primaryKey" json:"roleId"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assignedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Role *Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"role,omitempty"`
}

// TableName 指定表名
func (UserRole) TableName() string {
	return "user_roles"
}

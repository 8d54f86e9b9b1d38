package entity

// UserUpdates 用户更新字段
type UserUpdates struct {
	Email        *string
	Name         *string
	PasswordHash *string
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Email != nil {
		updates["email"] = *u.Email
	}
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

package auth

import "strconv"

// Role 定義使用者角色
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid 回報角色是否為系統認得的值
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Identity 是一次驗證後得到的主體，整個 session 期間不可變
type Identity struct {
	UserID uint `json:"user_id"`
	Role   Role `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (i Identity) String() string {
	return strconv.FormatUint(uint64(i.UserID), 10) + "/" + string(i.Role)
}

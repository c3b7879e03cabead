// Package policy 決定一個身分能否對任務、留言或版本執行某個動作。
//
// Decide 是純函式：不做 I/O、不回傳錯誤，只依據資源的擁有者、
// 指派對象與角色限制做出判斷。
package policy

import (
	"slices"

	"collab_web/internal/auth"
)

// Action 是對共享資源的操作
type Action string

const (
	ActionCreate   Action = "create"
	ActionRead     Action = "read"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionClearAll Action = "clearAll"
)

// Resource 是判斷權限時需要的資源形狀
type Resource struct {
	OwnerID      uint
	AssigneeID   uint // 0 表示沒有指派，只有任務會用到
	AllowedRoles []auth.Role
}

// Decision 是判斷結果
type Decision int

const (
	Deny Decision = iota
	Allow
	// AllowOwned 只允許作用在 actor 自己擁有的資源上（非管理員的 clearAll）
	AllowOwned
)

func (d Decision) Allowed() bool {
	return d == Allow || d == AllowOwned
}

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case AllowOwned:
		return "allow_owned"
	default:
		return "deny"
	}
}

// Decider 讓協調器可以替換判斷邏輯
type Decider interface {
	Decide(actor auth.Identity, action Action, res *Resource) Decision
}

// Engine 是預設的 Decider
type Engine struct{}

func (Engine) Decide(actor auth.Identity, action Action, res *Resource) Decision {
	return Decide(actor, action, res)
}

// Decide 依序套用規則，第一個符合的規則決定結果
func Decide(actor auth.Identity, action Action, res *Resource) Decision {
	if res != nil && len(res.AllowedRoles) > 0 && !slices.Contains(res.AllowedRoles, actor.Role) {
		return Deny
	}

	if actor.IsAdmin() {
		return Allow
	}

	switch action {
	case ActionCreate:
		return Allow
	case ActionClearAll:
		return AllowOwned
	}

	if res == nil || actor.UserID == 0 {
		return Deny
	}

	switch action {
	case ActionRead:
		// 指派對象可以讀取但不能修改
		if res.OwnerID == actor.UserID || (res.AssigneeID != 0 && res.AssigneeID == actor.UserID) {
			return Allow
		}
	case ActionUpdate, ActionDelete:
		if res.OwnerID == actor.UserID {
			return Allow
		}
	}
	return Deny
}

// Scope 是列表查詢的篩選條件
type Scope struct {
	All    bool
	UserID uint
}

// ReadScope 回傳 actor 在列表查詢時可見的範圍：管理員看全部，其他人看自己建立或被指派的
func ReadScope(actor auth.Identity) Scope {
	if actor.IsAdmin() {
		return Scope{All: true}
	}
	return Scope{UserID: actor.UserID}
}

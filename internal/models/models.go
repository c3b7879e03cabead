package models

// All 回傳需要自動遷移的模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&ProjectMember{},
		&Task{},
		&Comment{},
		&Version{},
	}
}

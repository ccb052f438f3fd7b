package domain

// UserRole 用户角色
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleOperator UserRole = "OPERATOR"
	RoleViewer   UserRole = "VIEWER"
)

// User 用户领域模型
// IsActive 为软删除标记：本核心不会从远端硬删除用户
type User struct {
	UserID         string   `json:"user_id"`
	Username       string   `json:"username"`
	Email          string   `json:"email,omitempty"`
	Role           UserRole `json:"role"`
	IsActive       bool     `json:"is_active"`
	AssignedPlants []string `json:"assigned_plants,omitempty"` // 集合语义，顺序无关
}

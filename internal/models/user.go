package models

import "time"

// Role represents user role in the platform.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// User represents a platform user (student or admin).
type User struct {
	ID        int64     `json:"id"`
	StudentID string    `json:"student_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	BranchID  *int64    `json:"branch_id,omitempty"`
	GradYear  int       `json:"grad_year"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        int64     `json:"id"`
	StudentID string    `json:"student_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	BranchID  *int64    `json:"branch_id,omitempty"`
	GradYear  int       `json:"grad_year"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		StudentID: u.StudentID,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		BranchID:  u.BranchID,
		GradYear:  u.GradYear,
		CreatedAt: u.CreatedAt,
	}
}

package model

import "time"

// Role is the stored role of an authenticated account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// UserRecord maps an account id to its role and display name (users/{uid}).
type UserRecord struct {
	UID       string    `json:"uid" firestore:"-"`
	Role      Role      `json:"role" firestore:"role"`
	Name      string    `json:"name" firestore:"name"`
	Email     string    `json:"email" firestore:"email"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// LoginRequest is the payload for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// LoginResponse is returned after a successful sign-in.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Actor     Actor     `json:"actor"`
}

// CreateTeacherRequest is the payload for provisioning a teacher.
type CreateTeacherRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

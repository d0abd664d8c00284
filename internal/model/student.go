package model

import "time"

// Student represents a student account (students/{uid}).
type Student struct {
	UID                string    `json:"uid" firestore:"-"`
	RegistrationNumber string    `json:"registration_number" firestore:"registrationNumber"`
	Name               string    `json:"name" firestore:"name"`
	BranchID           string    `json:"branch_id,omitempty" firestore:"branch"`
	Semester           string    `json:"semester,omitempty" firestore:"semester"`
	CreatedBy          string    `json:"created_by,omitempty" firestore:"createdBy"`
	CreatedAt          time.Time `json:"created_at" firestore:"createdAt"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	RegistrationNumber string `json:"registration_number" binding:"required,min=1,max=64"`
	Password           string `json:"password" binding:"required,min=1,max=128"`
}

// CreateStudentRequest is the payload for provisioning a student.
type CreateStudentRequest struct {
	Name               string `json:"name" binding:"required,min=2,max=100"`
	RegistrationNumber string `json:"registration_number" binding:"required,min=1,max=64,alphanum"`
	Password           string `json:"password" binding:"required,min=6,max=128"`
	BranchID           string `json:"branch_id" binding:"omitempty,max=64"`
	Semester           string `json:"semester" binding:"omitempty,max=16"`
}

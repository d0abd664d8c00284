package model

import "time"

// Subject represents an academic course or subject.
type Subject struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Code      string    `json:"code,omitempty" firestore:"code"`
	BranchID  string    `json:"branch_id,omitempty" firestore:"branchId"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Code     string `json:"code" binding:"omitempty,max=32"`
	BranchID string `json:"branch_id" binding:"omitempty,max=64"`
}

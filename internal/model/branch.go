package model

import "time"

// Branch is an academic branch (department) students and exams are scoped to.
type Branch struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// CreateBranchRequest is the payload for creating a branch.
type CreateBranchRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

package service

import "errors"

// Domain Errors
var (
	ErrNoActiveAttempt   = errors.New("no attempt registered for this exam")
	ErrRegistrationTaken = errors.New("registration number already registered")
	ErrBranchNotFound    = errors.New("branch not found")
	ErrSubjectNotFound   = errors.New("subject not found")
	ErrNotATeacher       = errors.New("account is not a teacher")
)

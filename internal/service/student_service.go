package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/identity"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
)

// StudentService provisions student accounts. Accounts are created server
// side, so the acting teacher's own session is never touched.
type StudentService struct {
	idp         identity.Gateway
	store       *store.Store
	emailDomain string
	log         zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(idp identity.Gateway, s *store.Store, studentEmailDomain string, log zerolog.Logger) *StudentService {
	return &StudentService{
		idp:         idp,
		store:       s,
		emailDomain: studentEmailDomain,
		log:         log.With().Str("component", "student_service").Logger(),
	}
}

// Create registers a student under a synthesised sign-in address.
func (s *StudentService) Create(ctx context.Context, by model.Actor, req *model.CreateStudentRequest) (*model.Student, error) {
	if _, err := s.store.Students.GetByRegistrationNumber(ctx, req.RegistrationNumber); err == nil {
		return nil, ErrRegistrationTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check registration number: %w", err)
	}
	if req.BranchID != "" {
		if _, err := s.store.Branches.Get(ctx, req.BranchID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrBranchNotFound
			}
			return nil, fmt.Errorf("get branch: %w", err)
		}
	}

	email := StudentAddress(req.RegistrationNumber, s.emailDomain)
	uid, err := s.idp.CreateAccount(ctx, email, req.Password, false)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, ErrRegistrationTaken
		}
		return nil, err
	}

	st := &model.Student{
		UID:                uid,
		RegistrationNumber: req.RegistrationNumber,
		Name:               req.Name,
		BranchID:           req.BranchID,
		Semester:           req.Semester,
		CreatedBy:          by.UID,
	}
	if err := s.store.Students.Create(ctx, st); err != nil {
		s.rollback(ctx, uid)
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrRegistrationTaken
		}
		return nil, fmt.Errorf("create student: %w", err)
	}
	if err := s.store.Users.Put(ctx, &model.UserRecord{UID: uid, Role: model.RoleStudent, Name: req.Name, Email: email}); err != nil {
		if derr := s.store.Students.Delete(ctx, uid); derr != nil {
			s.log.Error().Err(derr).Str("uid", uid).Msg("Failed to roll back student record")
		}
		s.rollback(ctx, uid)
		return nil, fmt.Errorf("store role record: %w", err)
	}

	s.log.Info().Str("uid", uid).Str("registration_number", st.RegistrationNumber).Str("by", by.UID).Msg("Student created")
	return st, nil
}

func (s *StudentService) rollback(ctx context.Context, uid string) {
	if err := s.idp.DeleteAccount(ctx, uid); err != nil {
		s.log.Error().Err(err).Str("uid", uid).Msg("Failed to roll back student account")
	}
}

// List returns every student ordered by registration number.
func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	return s.store.Students.List(ctx)
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, uid string) (*model.Student, error) {
	return s.store.Students.Get(ctx, uid)
}

// Delete removes the student record, the role record and the credential.
func (s *StudentService) Delete(ctx context.Context, uid string) error {
	if err := s.store.Students.Delete(ctx, uid); err != nil {
		return err
	}
	if err := s.store.Users.Delete(ctx, uid); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete role record: %w", err)
	}
	if err := s.idp.DeleteAccount(ctx, uid); err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
		return fmt.Errorf("delete account: %w", err)
	}
	s.log.Info().Str("uid", uid).Msg("Student deleted")
	return nil
}

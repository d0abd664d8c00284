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

// TeacherService provisions teacher accounts.
type TeacherService struct {
	idp   identity.Gateway
	users store.UserStore
	log   zerolog.Logger
}

// NewTeacherService creates a new TeacherService.
func NewTeacherService(idp identity.Gateway, users store.UserStore, log zerolog.Logger) *TeacherService {
	return &TeacherService{idp: idp, users: users, log: log.With().Str("component", "teacher_service").Logger()}
}

// Create registers the credential and the role record. The account is
// removed again if the role record cannot be written.
func (s *TeacherService) Create(ctx context.Context, req *model.CreateTeacherRequest) (*model.UserRecord, error) {
	uid, err := s.idp.CreateAccount(ctx, req.Email, req.Password, false)
	if err != nil {
		return nil, err
	}

	rec := &model.UserRecord{UID: uid, Role: model.RoleTeacher, Name: req.Name, Email: req.Email}
	if err := s.users.Put(ctx, rec); err != nil {
		if derr := s.idp.DeleteAccount(ctx, uid); derr != nil {
			s.log.Error().Err(derr).Str("uid", uid).Msg("Failed to roll back teacher account")
		}
		return nil, fmt.Errorf("store role record: %w", err)
	}

	s.log.Info().Str("uid", uid).Msg("Teacher created")
	return rec, nil
}

// List returns every teacher ordered by name.
func (s *TeacherService) List(ctx context.Context) ([]model.UserRecord, error) {
	return s.users.ListByRole(ctx, model.RoleTeacher)
}

// Delete removes the role record and the credential of a teacher.
func (s *TeacherService) Delete(ctx context.Context, uid string) error {
	rec, err := s.users.Get(ctx, uid)
	if err != nil {
		return err
	}
	if rec.Role != model.RoleTeacher {
		return ErrNotATeacher
	}
	if err := s.users.Delete(ctx, uid); err != nil {
		return err
	}
	if err := s.idp.DeleteAccount(ctx, uid); err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
		return fmt.Errorf("delete account: %w", err)
	}
	s.log.Info().Str("uid", uid).Msg("Teacher deleted")
	return nil
}

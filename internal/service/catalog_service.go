package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
)

// CatalogService manages branches and subjects.
type CatalogService struct {
	branches store.BranchStore
	subjects store.SubjectStore
	log      zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(branches store.BranchStore, subjects store.SubjectStore, log zerolog.Logger) *CatalogService {
	return &CatalogService{branches: branches, subjects: subjects, log: log.With().Str("component", "catalog_service").Logger()}
}

func (s *CatalogService) CreateBranch(ctx context.Context, req *model.CreateBranchRequest) (*model.Branch, error) {
	b := &model.Branch{Name: req.Name}
	if err := s.branches.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}
	s.log.Info().Str("branch_id", b.ID).Str("name", b.Name).Msg("Branch created")
	return b, nil
}

func (s *CatalogService) ListBranches(ctx context.Context) ([]model.Branch, error) {
	return s.branches.List(ctx)
}

func (s *CatalogService) DeleteBranch(ctx context.Context, id string) error {
	return s.branches.Delete(ctx, id)
}

// CreateSubject stores a subject, checking the branch when one is given.
func (s *CatalogService) CreateSubject(ctx context.Context, req *model.CreateSubjectRequest) (*model.Subject, error) {
	if req.BranchID != "" {
		if _, err := s.branches.Get(ctx, req.BranchID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrBranchNotFound
			}
			return nil, fmt.Errorf("get branch: %w", err)
		}
	}
	sub := &model.Subject{Name: req.Name, Code: req.Code, BranchID: req.BranchID}
	if err := s.subjects.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	s.log.Info().Str("subject_id", sub.ID).Str("name", sub.Name).Msg("Subject created")
	return sub, nil
}

func (s *CatalogService) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	return s.subjects.List(ctx)
}

func (s *CatalogService) DeleteSubject(ctx context.Context, id string) error {
	return s.subjects.Delete(ctx, id)
}

package main

import (
	"testing"
	"time"

	"github.com/stemsi/examportal-backend/internal/examsession"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixtures(t *testing.T) {
	f, err := LoadFixtures("fixtures.yaml")
	require.NoError(t, err)

	assert.Len(t, f.Branches, 2)
	require.NotEmpty(t, f.Exams)
	assert.Equal(t, 72*time.Hour, f.Exams[1].OpensIn)
	assert.Equal(t, "21BCE001", f.Students.RegistrationNumbers()[0])
	assert.Len(t, f.Students.RegistrationNumbers(), f.Students.Count)
}

func TestFixtureExamsAreValidDrafts(t *testing.T) {
	f, err := LoadFixtures("fixtures.yaml")
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, e := range f.Exams {
		req := e.ExamRequest("subject-1", "", now)
		assert.NoError(t, examsession.ValidateDraft(req), e.Title)
		assert.True(t, req.EndTime.After(*req.StartTime))
	}
}

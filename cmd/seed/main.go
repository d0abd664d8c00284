package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/stemsi/examportal-backend/internal/bootstrap"
	"github.com/stemsi/examportal-backend/internal/config"
	"github.com/stemsi/examportal-backend/internal/identity"
	"github.com/stemsi/examportal-backend/internal/logger"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/service"
	"github.com/stemsi/examportal-backend/internal/store"
	"gopkg.in/yaml.v3"
)

// Fixtures is the seed file layout. Cross references use names and emails.
type Fixtures struct {
	Branches []string         `yaml:"branches"`
	Subjects []SubjectFixture `yaml:"subjects"`
	Teachers []TeacherFixture `yaml:"teachers"`
	Students StudentFixture   `yaml:"students"`
	Exams    []ExamFixture    `yaml:"exams"`
}

type SubjectFixture struct {
	Name   string `yaml:"name"`
	Code   string `yaml:"code"`
	Branch string `yaml:"branch"`
}

type TeacherFixture struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// StudentFixture generates Count students numbered Prefix001 upwards.
type StudentFixture struct {
	Prefix   string `yaml:"prefix"`
	Count    int    `yaml:"count"`
	Password string `yaml:"password"`
	Branch   string `yaml:"branch"`
	Semester string `yaml:"semester"`
}

type ExamFixture struct {
	Title           string            `yaml:"title"`
	Subject         string            `yaml:"subject"`
	Author          string            `yaml:"author"`
	Branch          string            `yaml:"branch"`
	Semester        string            `yaml:"semester"`
	DurationMinutes int               `yaml:"duration_minutes"`
	OpensIn         time.Duration     `yaml:"opens_in"`
	OpenFor         time.Duration     `yaml:"open_for"`
	Questions       []QuestionFixture `yaml:"questions"`
}

type QuestionFixture struct {
	Text    string            `yaml:"text"`
	Options map[string]string `yaml:"options"`
	Correct string            `yaml:"correct"`
}

// LoadFixtures parses a seed file.
func LoadFixtures(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// ExamRequest converts the fixture into an authoring draft anchored at now.
func (e ExamFixture) ExamRequest(subjectID, branchID string, now time.Time) *model.CreateExamRequest {
	start := now.Add(e.OpensIn).Truncate(time.Minute)
	end := start.Add(e.OpenFor)
	req := &model.CreateExamRequest{
		Title:           e.Title,
		SubjectID:       subjectID,
		BranchID:        branchID,
		Semester:        e.Semester,
		DurationMinutes: e.DurationMinutes,
		StartTime:       &start,
		EndTime:         &end,
	}
	for _, q := range e.Questions {
		req.Questions = append(req.Questions, model.QuestionInput{
			Text: q.Text,
			Options: model.Options{
				A: q.Options["A"], B: q.Options["B"], C: q.Options["C"], D: q.Options["D"],
			},
			CorrectAnswer: model.Label(q.Correct),
		})
	}
	return req
}

// RegistrationNumbers lists the generated registration numbers.
func (s StudentFixture) RegistrationNumbers() []string {
	out := make([]string, 0, s.Count)
	for i := 1; i <= s.Count; i++ {
		out = append(out, fmt.Sprintf("%s%03d", s.Prefix, i))
	}
	return out
}

type seeder struct {
	catalog  *service.CatalogService
	teachers *service.TeacherService
	students *service.StudentService
	exams    *service.ExamService
	users    store.UserStore

	branchIDs  map[string]string
	subjectIDs map[string]string
	teacherIDs map[string]string
}

func main() {
	var path string
	flag.StringVar(&path, "file", "cmd/seed/fixtures.yaml", "Path to the fixtures file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	fixtures, err := LoadFixtures(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load fixtures")
	}

	backends, err := bootstrap.Open(ctx, cfg, nil, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open backends")
	}
	defer backends.Close()

	st := backends.Store
	catalog := service.NewCatalogService(st.Branches, st.Subjects, log)
	s := &seeder{
		catalog:    catalog,
		teachers:   service.NewTeacherService(backends.Identity, st.Users, log),
		students:   service.NewStudentService(backends.Identity, st, cfg.StudentEmailDomain, log),
		exams:      service.NewExamService(st, nil, 0, log),
		users:      st.Users,
		branchIDs:  make(map[string]string),
		subjectIDs: make(map[string]string),
		teacherIDs: make(map[string]string),
	}

	color.New(color.Bold).Printf("=== Seeding from %s ===\n", path)
	if err := s.run(ctx, fixtures); err != nil {
		color.Red("Seeding failed: %v", err)
		os.Exit(1)
	}
	color.Green("Done.")
}

func (s *seeder) run(ctx context.Context, f *Fixtures) error {
	if err := s.loadExisting(ctx); err != nil {
		return err
	}

	for _, name := range f.Branches {
		if _, ok := s.branchIDs[name]; ok {
			skipped("branch", name)
			continue
		}
		b, err := s.catalog.CreateBranch(ctx, &model.CreateBranchRequest{Name: name})
		if err != nil {
			return fmt.Errorf("branch %s: %w", name, err)
		}
		s.branchIDs[name] = b.ID
		created("branch", name)
	}

	for _, sub := range f.Subjects {
		if _, ok := s.subjectIDs[sub.Name]; ok {
			skipped("subject", sub.Name)
			continue
		}
		subject, err := s.catalog.CreateSubject(ctx, &model.CreateSubjectRequest{
			Name: sub.Name, Code: sub.Code, BranchID: s.branchIDs[sub.Branch],
		})
		if err != nil {
			return fmt.Errorf("subject %s: %w", sub.Name, err)
		}
		s.subjectIDs[sub.Name] = subject.ID
		created("subject", sub.Name)
	}

	for _, t := range f.Teachers {
		if _, ok := s.teacherIDs[t.Email]; ok {
			skipped("teacher", t.Email)
			continue
		}
		rec, err := s.teachers.Create(ctx, &model.CreateTeacherRequest{Name: t.Name, Email: t.Email, Password: t.Password})
		if err != nil {
			return fmt.Errorf("teacher %s: %w", t.Email, err)
		}
		s.teacherIDs[t.Email] = rec.UID
		created("teacher", t.Email)
	}

	seedBy := model.Actor{Kind: model.ActorAdmin, UID: "seed"}
	for i, reg := range f.Students.RegistrationNumbers() {
		_, err := s.students.Create(ctx, seedBy, &model.CreateStudentRequest{
			Name:               fmt.Sprintf("Student %d", i+1),
			RegistrationNumber: reg,
			Password:           f.Students.Password,
			BranchID:           s.branchIDs[f.Students.Branch],
			Semester:           f.Students.Semester,
		})
		switch {
		case errors.Is(err, service.ErrRegistrationTaken), errors.Is(err, identity.ErrEmailTaken):
			skipped("student", reg)
		case err != nil:
			return fmt.Errorf("student %s: %w", reg, err)
		default:
			created("student", reg)
		}
	}

	now := time.Now().UTC()
	for _, e := range f.Exams {
		subjectID, ok := s.subjectIDs[e.Subject]
		if !ok {
			return fmt.Errorf("exam %s: unknown subject %q", e.Title, e.Subject)
		}
		authorID, ok := s.teacherIDs[e.Author]
		if !ok {
			return fmt.Errorf("exam %s: unknown author %q", e.Title, e.Author)
		}
		author := model.Actor{Kind: model.ActorTeacher, UID: authorID, Email: e.Author}
		exam, err := s.exams.Create(ctx, author, e.ExamRequest(subjectID, s.branchIDs[e.Branch], now))
		if err != nil {
			return fmt.Errorf("exam %s: %w", e.Title, err)
		}
		created("exam", fmt.Sprintf("%s (%s)", exam.Title, exam.ID))
	}
	return nil
}

// loadExisting indexes what is already stored so reruns only add the gaps.
func (s *seeder) loadExisting(ctx context.Context) error {
	branches, err := s.catalog.ListBranches(ctx)
	if err != nil {
		return fmt.Errorf("list branches: %w", err)
	}
	for _, b := range branches {
		s.branchIDs[b.Name] = b.ID
	}
	subjects, err := s.catalog.ListSubjects(ctx)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}
	for _, sub := range subjects {
		s.subjectIDs[sub.Name] = sub.ID
	}
	teachers, err := s.users.ListByRole(ctx, model.RoleTeacher)
	if err != nil {
		return fmt.Errorf("list teachers: %w", err)
	}
	for _, t := range teachers {
		s.teacherIDs[t.Email] = t.UID
	}
	return nil
}

func created(kind, name string) {
	color.New(color.FgGreen).Print("  + ")
	fmt.Printf("%-8s %s\n", kind, name)
}

func skipped(kind, name string) {
	color.New(color.FgYellow).Print("  = ")
	fmt.Printf("%-8s %s (exists)\n", kind, name)
}

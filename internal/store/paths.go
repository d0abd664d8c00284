package store

import "strings"

// Collections addressed by the gateway.
const (
	CollectionExams    = "exams"
	CollectionResults  = "results"
	CollectionStudents = "students"
	CollectionUsers    = "users"
	CollectionBranches = "branches"
	CollectionSubjects = "subjects"
)

// Collections lists the top-level collections in a stable order.
var Collections = []string{
	CollectionBranches,
	CollectionSubjects,
	CollectionUsers,
	CollectionStudents,
	CollectionExams,
}

func ExamPath(examID string) string {
	return CollectionExams + "/" + examID
}

func ResultPath(examID, studentID string) string {
	return ExamPath(examID) + "/" + CollectionResults + "/" + studentID
}

func StudentPath(uid string) string {
	return CollectionStudents + "/" + uid
}

func UserPath(uid string) string {
	return CollectionUsers + "/" + uid
}

func BranchPath(id string) string {
	return CollectionBranches + "/" + id
}

func SubjectPath(id string) string {
	return CollectionSubjects + "/" + id
}

// TopLevel returns the collection a slash path belongs to, or "" when the
// path does not start with a known collection.
func TopLevel(path string) string {
	head, _, _ := strings.Cut(strings.Trim(path, "/"), "/")
	for _, c := range Collections {
		if c == head {
			return c
		}
	}
	return ""
}

// Package testutil opens in-memory databases with the full schema and seeds
// accounts for service tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"github.com/smallbiznis/internlink/internal/migration"
	"gorm.io/gorm"
)

func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		t.Fatalf("busy timeout: %v", err)
	}
	if err := migration.EnsureSchema(db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return db
}

func NewNode(t testing.TB) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

// Seeder inserts fixture rows directly.
type Seeder struct {
	t    testing.TB
	db   *gorm.DB
	Node *snowflake.Node
}

func NewSeeder(t testing.TB, db *gorm.DB, node *snowflake.Node) *Seeder {
	return &Seeder{t: t, db: db, Node: node}
}

func (s *Seeder) exec(query string, args ...any) {
	s.t.Helper()
	if err := s.db.Exec(query, args...).Error; err != nil {
		s.t.Fatalf("seed: %v", err)
	}
}

func (s *Seeder) user(role accountdomain.Role, stage accountdomain.Stage) snowflake.ID {
	s.t.Helper()
	id := s.Node.Generate()
	now := time.Now().UTC()
	s.exec(
		`INSERT INTO users (id, role, email, stage, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, role, fmt.Sprintf("%d@example.test", id), stage, now, now,
	)
	return id
}

// Student creates a student named "Ivanova Anna" at the given stage.
func (s *Seeder) Student(stage accountdomain.Stage) snowflake.ID {
	s.t.Helper()
	id := s.user(accountdomain.RoleStudent, stage)
	s.exec(
		`INSERT INTO student_profiles (user_id, first_name, last_name, middle_name, phone) VALUES (?, ?, ?, '', ?)`,
		id, "Anna", "Ivanova", "+10000000000",
	)
	return id
}

// Employer creates an accredited employer named org at the given stage.
func (s *Seeder) Employer(stage accountdomain.Stage, org string) snowflake.ID {
	s.t.Helper()
	id := s.user(accountdomain.RoleEmployer, stage)
	s.exec(
		`INSERT INTO employer_profiles (user_id, organization_name, contact_name, phone, tax_number, description, website, address, accredited)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, org, "Hiring Manager", "+10000000001", "7700000000", "We build things", "https://example.test", "1 Main St", true,
	)
	return id
}

func (s *Seeder) Administrator() snowflake.ID {
	s.t.Helper()
	return s.user(accountdomain.RoleAdministrator, accountdomain.StageFullyActivated)
}

func (s *Seeder) Vacancy(employerID snowflake.ID) snowflake.ID {
	s.t.Helper()
	id := s.Node.Generate()
	now := time.Now().UTC()
	s.exec(
		`INSERT INTO vacancies (id, employer_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, employerID, "Backend intern", now, now,
	)
	return id
}

func (s *Seeder) Resume(studentID snowflake.ID) snowflake.ID {
	s.t.Helper()
	id := s.Node.Generate()
	s.exec(
		`INSERT INTO resumes (id, student_id, title, is_active) VALUES (?, ?, ?, ?)`,
		id, studentID, "Go developer", true,
	)
	return id
}

func (s *Seeder) StudyPlan(studentID snowflake.ID) snowflake.ID {
	s.t.Helper()
	id := s.Node.Generate()
	s.exec(
		`INSERT INTO study_plans (id, student_id, faculty_id, course_id, speciality_id, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		id, studentID, s.Node.Generate(), s.Node.Generate(), s.Node.Generate(), true,
	)
	return id
}

// SoftDelete marks the user deleted without touching dependents.
func (s *Seeder) SoftDelete(userID snowflake.ID) {
	s.t.Helper()
	s.exec(`UPDATE users SET deleted_at = ? WHERE id = ?`, time.Now().UTC(), userID)
}

func (s *Seeder) Count(table, where string, args ...any) int64 {
	s.t.Helper()
	var n int64
	if err := s.db.Raw("SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&n).Error; err != nil {
		s.t.Fatalf("count %s: %v", table, err)
	}
	return n
}

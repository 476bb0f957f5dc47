package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const userColumns = `id, role, email, stage, created_at, updated_at, deleted_at`

func (r *repo) FindUser(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindUsers(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE id IN ?`,
		ids,
	).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repo) FindStudentProfiles(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.StudentProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []domain.StudentProfile
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, first_name, last_name, middle_name, phone
		 FROM student_profiles WHERE user_id IN ?`,
		ids,
	).Scan(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *repo) FindEmployerProfiles(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.EmployerProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []domain.EmployerProfile
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, organization_name, contact_name, phone, tax_number, description,
		        website, address, accredited, accredited_at
		 FROM employer_profiles WHERE user_id IN ?`,
		ids,
	).Scan(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *repo) ListStudyPlans(ctx context.Context, db *gorm.DB, studentID snowflake.ID) ([]domain.StudyPlan, error) {
	var plans []domain.StudyPlan
	err := db.WithContext(ctx).Raw(
		`SELECT id, student_id, faculty_id, course_id, speciality_id, is_active, deleted_at
		 FROM study_plans WHERE student_id = ?
		 ORDER BY id ASC`,
		studentID,
	).Scan(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repo) ListResumes(ctx context.Context, db *gorm.DB, studentID snowflake.ID) ([]domain.Resume, error) {
	var resumes []domain.Resume
	err := db.WithContext(ctx).Raw(
		`SELECT id, student_id, title, is_active, deleted_at
		 FROM resumes WHERE student_id = ?
		 ORDER BY id ASC`,
		studentID,
	).Scan(&resumes).Error
	if err != nil {
		return nil, err
	}
	return resumes, nil
}

func (r *repo) FindResume(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Resume, error) {
	var resume domain.Resume
	err := db.WithContext(ctx).Raw(
		`SELECT id, student_id, title, is_active, deleted_at FROM resumes WHERE id = ?`,
		id,
	).Scan(&resume).Error
	if err != nil {
		return nil, err
	}
	if resume.ID == 0 {
		return nil, nil
	}
	return &resume, nil
}

func (r *repo) UpdateStage(ctx context.Context, db *gorm.DB, id snowflake.ID, stage domain.Stage, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET stage = ?, updated_at = ? WHERE id = ?`,
		stage,
		at,
		id,
	).Error
}

func (r *repo) SoftDeleteUser(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE users SET deleted_at = ?, stage = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		at,
		domain.StageAnonymous,
		at,
		id,
	)
	return res.RowsAffected, res.Error
}

// SoftDeleteDependents stamps live resumes, study plans and vacancies of the
// user with the same deletion time as the user row.
func (r *repo) SoftDeleteDependents(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	stmts := []string{
		`UPDATE resumes SET deleted_at = ? WHERE student_id = ? AND deleted_at IS NULL`,
		`UPDATE study_plans SET deleted_at = ? WHERE student_id = ? AND deleted_at IS NULL`,
		`UPDATE vacancies SET deleted_at = ? WHERE employer_id = ? AND deleted_at IS NULL`,
	}
	for _, stmt := range stmts {
		if err := db.WithContext(ctx).Exec(stmt, at, id).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) CancelOpenInvitations(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = 'cancelled', updated_at = ?
		 WHERE status = 'sent' AND (sender_id = ? OR receiver_id = ?)`,
		at,
		id,
		id,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) RestoreUser(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET deleted_at = NULL, updated_at = ? WHERE id = ?`,
		at,
		id,
	).Error
}

func (r *repo) RestoreDependents(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to time.Time) error {
	stmts := []string{
		`UPDATE resumes SET deleted_at = NULL WHERE student_id = ? AND deleted_at BETWEEN ? AND ?`,
		`UPDATE study_plans SET deleted_at = NULL WHERE student_id = ? AND deleted_at BETWEEN ? AND ?`,
		`UPDATE vacancies SET deleted_at = NULL WHERE employer_id = ? AND deleted_at BETWEEN ? AND ?`,
	}
	for _, stmt := range stmts {
		if err := db.WithContext(ctx).Exec(stmt, id, from, to).Error; err != nil {
			return err
		}
	}
	return nil
}

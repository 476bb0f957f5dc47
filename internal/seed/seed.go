package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"gorm.io/gorm"
)

// EnsureAdministrator creates the bootstrap administrator account when no
// user with email exists. It reports whether a row was created.
func EnsureAdministrator(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	if db == nil {
		return false, errors.New("seed database handle is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return false, errors.New("seed administrator email is invalid")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return false, err
	}

	created := false
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing struct {
			ID   int64
			Role string
		}
		if err := tx.WithContext(ctx).Raw(
			`SELECT id, role FROM users WHERE email = ?`,
			email,
		).Scan(&existing).Error; err != nil {
			return err
		}
		if existing.ID != 0 {
			if existing.Role != string(accountdomain.RoleAdministrator) {
				return errors.New("seed administrator email belongs to a non-administrator account")
			}
			return nil
		}

		now := time.Now().UTC()
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO users (id, role, email, stage, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			node.Generate(),
			accountdomain.RoleAdministrator,
			email,
			accountdomain.StageFullyActivated,
			now,
			now,
		).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

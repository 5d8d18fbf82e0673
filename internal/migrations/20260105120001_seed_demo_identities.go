package migrations

import (
	"context"
	"fmt"

	"github.com/gigmarket/marketapi/internal/auth"
	"github.com/gigmarket/marketapi/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260105120001, down_20260105120001)
}

// up_20260105120001 seeds the demo identities so persisted and synthetic
// sessions for the same subject id agree on role and name
func up_20260105120001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] seeding demo users...")

	identities := auth.DefaultDemoIdentities()
	for _, ident := range identities {
		user := &models.User{
			ID:        ident.SubjectID,
			Email:     ident.Email,
			FirstName: ident.FirstName,
			LastName:  ident.LastName,
			Role:      string(ident.Role),
			Verified:  ident.Verified,
			IsActive:  true,
		}
		exists, err := db.NewSelect().
			Model((*models.User)(nil)).
			Where("id = ?", ident.SubjectID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check demo user %d: %w", ident.SubjectID, err)
		}
		if exists {
			continue
		}
		if _, err := db.NewInsert().Model(user).Exec(ctx); err != nil {
			return fmt.Errorf("failed to seed demo user %d: %w", ident.SubjectID, err)
		}
	}

	// Explicit ids do not advance the serial sequence in PostgreSQL.
	if IsPostgreSQL(db) {
		_, err := db.ExecContext(ctx,
			`SELECT setval(pg_get_serial_sequence('users', 'id'), (SELECT MAX(id) FROM users))`)
		if err != nil {
			return fmt.Errorf("failed to advance users id sequence: %w", err)
		}
	}
	fmt.Println(" OK")

	fmt.Print(" [up] seeding demo worker subscriptions...")
	for _, ident := range identities {
		if ident.Role != auth.RoleWorker {
			continue
		}
		exists, err := db.NewSelect().
			Model((*models.Subscription)(nil)).
			Where("user_id = ?", ident.SubjectID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check demo subscription for %d: %w", ident.SubjectID, err)
		}
		if exists {
			continue
		}
		sub := &models.Subscription{
			UserID: ident.SubjectID,
			Status: models.SubscriptionStatusActive,
		}
		if _, err := db.NewInsert().Model(sub).Exec(ctx); err != nil {
			return fmt.Errorf("failed to seed demo subscription for %d: %w", ident.SubjectID, err)
		}
	}
	fmt.Println(" OK")

	return nil
}

// down_20260105120001 removes the demo users; their subscriptions cascade
func down_20260105120001(ctx context.Context, db *bun.DB) error {
	ids := make([]int64, 0, len(auth.DefaultDemoIdentities()))
	for _, ident := range auth.DefaultDemoIdentities() {
		ids = append(ids, ident.SubjectID)
	}

	_, err := db.NewDelete().
		Model((*models.Subscription)(nil)).
		Where("user_id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove demo subscriptions: %w", err)
	}

	_, err = db.NewDelete().
		Model((*models.User)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove demo users: %w", err)
	}
	fmt.Println(" [down] removed demo identities")
	return nil
}

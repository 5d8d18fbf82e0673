package migrations

import (
	"context"
	"fmt"

	"github.com/gigmarket/marketapi/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260105120000, down_20260105120000)
}

// up_20260105120000 creates the users, sessions and subscriptions tables
func up_20260105120000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating users table...")
	_, err := db.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating sessions table...")
	_, err = db.NewCreateTable().
		Model((*models.Session)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`)
	if err != nil {
		return fmt.Errorf("failed to create sessions user_id index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating subscriptions table...")
	_, err = db.NewCreateTable().
		Model((*models.Subscription)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create subscriptions table: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_subscriptions_user_id ON subscriptions(user_id)`)
	if err != nil {
		return fmt.Errorf("failed to create subscriptions user_id index: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260105120000 drops the auth tables in reverse dependency order
func down_20260105120000(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{
		(*models.Subscription)(nil),
		(*models.Session)(nil),
		(*models.User)(nil),
	} {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	fmt.Println(" [down] dropped auth tables")
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/gigmarket/marketapi/internal/auth"
	"github.com/gigmarket/marketapi/internal/db/bunx"
	"github.com/gigmarket/marketapi/internal/db/models"
	"github.com/gigmarket/marketapi/internal/repository"
)

var (
	sessionUserID int64
	sessionTTL    time.Duration
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage persisted login sessions",
}

var sessionsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a persisted session for a user",
	Long: `Creates an opaque session token for an active user and stores its hash.
The token is printed once and cannot be recovered afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionUserID <= 0 {
			return fmt.Errorf("--user-id is required")
		}
		if sessionTTL <= 0 {
			return fmt.Errorf("--ttl must be positive")
		}

		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer bunx.Close(db)

		return createSession(ctx, cmd.OutOrStdout(), db, sessionUserID, sessionTTL)
	},
}

func createSession(ctx context.Context, w io.Writer, db *bun.DB, userID int64, ttl time.Duration) error {
	user, err := repository.NewBunUserRepository(db).GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return fmt.Errorf("user %d is not active", userID)
	}
	if _, err := auth.ParseRole(user.Role); err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}

	token, tokenHash, err := auth.GenerateSessionToken()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	session := &models.Session{
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := repository.NewBunSessionRepository(db).Create(ctx, session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	fmt.Fprintf(w, "user:    %d (%s)\n", user.ID, user.Role)
	fmt.Fprintf(w, "expires: %s\n", session.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(w, "token:   %s\n", token)
	return nil
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsCreateCmd)

	sessionsCreateCmd.Flags().Int64Var(&sessionUserID, "user-id", 0, "User id to create the session for")
	sessionsCreateCmd.Flags().DurationVar(&sessionTTL, "ttl", 12*time.Hour, "Session lifetime")
}

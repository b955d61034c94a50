// Command eventctl performs administrative maintenance against the
// campus events database.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"CampusEvents/internal/announcement"
	"CampusEvents/internal/attendance"
	"CampusEvents/internal/auth"
	"CampusEvents/internal/bootstrap"
	"CampusEvents/internal/club"
	"CampusEvents/internal/config"
	"CampusEvents/internal/event"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type env struct {
	mongo  *config.MongoDBClient
	logger *zap.Logger
}

func connect(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	mc, err := config.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &env{mongo: mc, logger: logger}, nil
}

func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.mongo.Client.Disconnect(ctx)
	_ = e.logger.Sync()
}

func main() {
	bootstrap.Loadenv()

	root := &cobra.Command{
		Use:          "eventctl",
		Short:        "Maintenance commands for the campus events API",
		SilenceUsage: true,
	}
	root.AddCommand(createAdminCmd(), ensureIndexesCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func createAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin user, or promote an existing one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(password) < 6 {
				return fmt.Errorf("password must be at least 6 characters")
			}
			ctx := cmd.Context()
			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			users := auth.NewUserRepository(e.mongo.Database)
			email = strings.ToLower(strings.TrimSpace(email))
			existing, err := users.FindByEmail(ctx, email)
			if err != nil {
				return err
			}
			if existing != nil {
				if _, err := users.UpdateUser(ctx, existing.ID, bson.M{"role": auth.RoleAdmin}); err != nil {
					return err
				}
				e.logger.Info("Promoted user to admin", zap.String("email", email))
				return nil
			}

			hashed, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			admin := &auth.User{Name: name, Email: email, Password: hashed, Role: auth.RoleAdmin}
			if err := users.CreateUser(ctx, admin); err != nil {
				return err
			}
			e.logger.Info("Admin created", zap.String("email", email), zap.String("userId", admin.ID.Hex()))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func ensureIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create every collection index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			db := e.mongo.Database
			builders := []config.IndexBuilder{
				auth.NewUserRepository(db),
				club.NewClubRepository(db),
				event.NewEventRepository(db),
				attendance.NewAttendanceRepository(db),
				announcement.NewAnnouncementRepository(db),
			}
			if err := config.EnsureIndexes(ctx, builders); err != nil {
				return err
			}
			e.logger.Info("Indexes ensured", zap.Int("collections", len(builders)))
			return nil
		},
	}
}

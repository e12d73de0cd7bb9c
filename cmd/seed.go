package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"folio/internal/audit"
	"folio/internal/auth"
	"folio/internal/customers"
	"folio/internal/logger"
	"folio/internal/models"
)

var (
	seedAdminEmail    string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the first admin user and a sample customer",
	Long: `Seed an empty database with an ADMIN account and one sample customer.
Existing users or customers are left alone. When --admin-password is not
given a random password is generated and printed once.`,
	Example: `  folio seed --admin-email manager@hotel.example`,
	Args:    cobra.NoArgs,
	RunE:    runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@folio.local", "email of the admin account")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password of the admin account (generated when empty)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("seed")
	ctx := cmd.Context()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	auditLog := audit.New(db, nil)
	authSvc := auth.NewService(db, auditLog)

	users, err := authSvc.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		password := seedAdminPassword
		if password == "" {
			token, err := auth.GenerateToken()
			if err != nil {
				return fmt.Errorf("generate password: %w", err)
			}
			password = token[:20]
		}
		u, err := authSvc.CreateUser(ctx, cliActor, auth.CreateUserInput{
			Email:    seedAdminEmail,
			Name:     "Administrator",
			Role:     models.RoleAdmin,
			Password: password,
		})
		if err != nil {
			return err
		}
		log.Info().Str("user_id", u.ID).Str("email", u.Email).Msg("Admin user created")
		if seedAdminPassword == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Admin password for %s: %s\n", u.Email, password)
		}
	} else {
		log.Info().Int("users", len(users)).Msg("Users exist, skipping admin")
	}

	custSvc := customers.NewService(db, auditLog)
	existing, err := custSvc.List(ctx, customers.Filter{Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info().Msg("Customers exist, skipping sample customer")
		return nil
	}
	c, err := custSvc.Create(ctx, cliActor, customers.CreateInput{
		Name:    "Sample Travel Agency",
		Type:    models.Company,
		Address: "Point Cruz, Honiara",
		Emails:  []string{"bookings@sample-travel.example"},
		Phone:   "+677 20000",
	})
	if err != nil {
		return err
	}
	log.Info().Str("customer_id", c.ID).Msg("Sample customer created")
	return nil
}

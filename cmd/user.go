package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"folio/internal/audit"
	"folio/internal/auth"
	"folio/internal/logger"
	"folio/internal/models"
)

var (
	userEmail    string
	userName     string
	userRole     string
	userPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user account",
	Example: `  folio user add --email clerk@hotel.example --name "Front Desk" --role STAFF --password 'changeme123'`,
	Args: cobra.NoArgs,
	RunE: runUserAdd,
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "login email (required)")
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name (required)")
	userAddCmd.Flags().StringVar(&userRole, "role", string(models.RoleStaff), "ADMIN, STAFF or VIEWER")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "initial password (required)")
	userAddCmd.MarkFlagRequired("email")
	userAddCmd.MarkFlagRequired("name")
	userAddCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := auth.NewService(db, audit.New(db, nil))
	u, err := svc.CreateUser(cmd.Context(), cliActor, auth.CreateUserInput{
		Email:    userEmail,
		Name:     userName,
		Role:     models.Role(userRole),
		Password: userPassword,
	})
	if err != nil {
		return err
	}
	log := logger.WithComponent("user")
	log.Info().
		Str("user_id", u.ID).
		Str("role", string(u.Role)).
		Msg("User created")
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s) with id %s\n", u.Email, u.Role, u.ID)
	return nil
}

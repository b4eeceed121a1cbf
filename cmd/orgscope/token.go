package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumigente/lumigente-backend/internal/auth/jwt"
	"github.com/lumigente/lumigente-backend/pkg/config"
)

// TokenOutput is a minted access token
type TokenOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenCmd() *cobra.Command {
	var user jwt.UserInfo

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user.ID <= 0 {
				return errors.New("--user-id is required")
			}
			cfg, err := config.Load(commandName)
			if err != nil {
				return err
			}
			if cfg.Server.Environment == config.EnvProduction {
				return errors.New("tokens are issued by the login service in production")
			}

			token, expiresAt, err := jwt.NewManager(&cfg.JWT).GenerateAccessToken(&user)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), TokenOutput{Token: token, ExpiresAt: expiresAt})
		},
	}
	cmd.Flags().Int64Var(&user.ID, "user-id", 0, "account id")
	cmd.Flags().StringVar(&user.RegistrationNumber, "registration", "", "registration number")
	cmd.Flags().StringVar(&user.NationalID, "national-id", "", "national id")
	cmd.Flags().StringVar(&user.Name, "name", "", "display name")
	cmd.Flags().StringVar(&user.Role, "role", "", "role")
	cmd.Flags().StringVar(&user.DepartmentCode, "department", "", "department code")
	cmd.Flags().StringVar(&user.DepartmentDescription, "department-description", "", "department description")
	cmd.Flags().StringVar(&user.Branch, "branch", "", "branch")
	return cmd
}

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"summarease/config"
	"summarease/middleware"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue an API access token for a user",
	Long: `Sign an HS256 access token for the given user with JWT_SECRET.
The user must exist and be active for the API to accept the token.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			return fmt.Errorf("ttl must be positive: %v", ttl)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		token, err := middleware.IssueToken(cfg.Auth, userID, ttl, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}

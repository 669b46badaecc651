package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillswap/skillswap-hub/internal/interface/http/handlers"
)

var (
	tokenTTL time.Duration

	// now is replaced in tests.
	now = time.Now
)

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Issue a bearer token for local testing",
	Long: `Issue a bearer token for local testing.

The token is signed with AUTH_JWT_SECRET and carries AUTH_ISSUER and
AUTH_AUDIENCE when set, so the API accepts it as-is.

Examples:
  swapctl token alice
  curl -H "Authorization: Bearer $(swapctl token alice)" localhost:8080/api/v1/matches`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default: AUTH_TOKEN_TTL)")
}

func runToken(cmd *cobra.Command, args []string) error {
	auth, err := handlers.NewAuthenticator(handlers.AuthConfig{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway,
	})
	if err != nil {
		return err
	}

	ttl := tokenTTL
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, err := auth.Issue(args[0], ttl, now())
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

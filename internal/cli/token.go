package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gogotex/pdfstore/internal/tokens"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an HS256 access token for local testing",
	Long:  `Signs a short-lived access token with JWT_SECRET (or --secret). The subject becomes the document owner.`,
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

var (
	tokenSub    string
	tokenName   string
	tokenTTL    time.Duration
	tokenSecret string
)

func init() {
	tokenCmd.Flags().StringVar(&tokenSub, "sub", "", "Subject (owner) of the token")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 15*time.Minute, "Token lifetime")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	_ = tokenCmd.MarkFlagRequired("sub")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	secret := tokenSecret
	if secret == "" {
		_ = godotenv.Load()
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		return errors.New("no signing secret: set JWT_SECRET or pass --secret")
	}
	tok, err := tokens.GenerateAccessToken(secret, tokenSub, tokenName, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}

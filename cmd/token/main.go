// Command token obtains access tokens for exercising the gateway: mint a
// development token locally, or fetch one from the identity directory.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "token",
		Short:         "Obtain access tokens for the event gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(mintCmd(), fetchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func mintCmd() *cobra.Command {
	var (
		secret   string
		issuer   string
		clientID string
		username string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Sign a development access token locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("GATE_AUTH_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("no signing secret: pass --secret or set GATE_AUTH_SECRET")
			}

			now := time.Now()
			claims := jwt.MapClaims{
				"iss":       issuer,
				"client_id": clientID,
				"token_use": "access",
				"username":  username,
				"iat":       jwt.NewNumericDate(now),
				"exp":       jwt.NewNumericDate(now.Add(ttl)),
			}

			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			fmt.Println(signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret (defaults to GATE_AUTH_SECRET)")
	cmd.Flags().StringVar(&issuer, "issuer", "https://identity.local/eventgate", "token issuer")
	cmd.Flags().StringVar(&clientID, "client-id", "eventgate-client", "client_id claim")
	cmd.Flags().StringVar(&username, "username", "dev-user", "username claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	return cmd
}

func fetchCmd() *cobra.Command {
	var (
		directoryURL string
		username     string
		password     string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch an access token from the identity directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]string{
				"username": username,
				"password": password,
			})
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: timeout}
			resp, err := client.Post(directoryURL+"/api/v1/auth/token", "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("token request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("identity directory returned status %d", resp.StatusCode)
			}

			var result struct {
				AccessToken string `json:"access_token"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return fmt.Errorf("decode token response: %w", err)
			}
			if result.AccessToken == "" {
				return fmt.Errorf("identity directory returned no access token")
			}

			fmt.Println(result.AccessToken)
			return nil
		},
	}

	cmd.Flags().StringVar(&directoryURL, "url", "http://localhost:8081", "identity directory base URL")
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

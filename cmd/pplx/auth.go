package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/diogo/pplx-search-go/internal/auth"
	"github.com/spf13/cobra"
)

var (
	flagLoginEmail   string
	flagLoginFromApp bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a token",
	Long: `Sign in with an emailed one-time code and store the resulting
token, or import the token from an installed desktop app.

Examples:
  pplx login --email you@example.com
  pplx login --from-app`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := tokenStore()

		if flagLoginFromApp {
			tok, err := auth.ExtractFromApp()
			if err != nil {
				if errors.Is(err, auth.ErrAppStateNotFound) {
					render.RenderWarning("No desktop app auth state found on this machine")
					render.RenderInfo("Run 'pplx login --email <address>' to sign in by email instead")
				}
				return err
			}
			if err := store.Save(tok); err != nil {
				return err
			}
			render.RenderSuccess("Imported token from desktop app")
			if tok.Email != "" {
				render.RenderInfo("Account: " + tok.Email)
			}
			return nil
		}

		email := strings.TrimSpace(flagLoginEmail)
		if email == "" {
			var err error
			email, err = prompt("Email: ")
			if err != nil {
				return err
			}
		}
		if email == "" {
			return errors.New("an email address is required")
		}

		flow, err := auth.NewOTPFlow()
		if err != nil {
			return err
		}
		defer flow.Close()

		if err := flow.RequestCode(cmd.Context(), email); err != nil {
			return err
		}
		render.RenderInfo(fmt.Sprintf("A sign-in code was sent to %s", email))

		code, err := prompt("Code: ")
		if err != nil {
			return err
		}
		if code == "" {
			return errors.New("a sign-in code is required")
		}

		tok, err := flow.Redeem(cmd.Context(), email, code)
		if err != nil {
			return err
		}
		if err := store.Save(tok); err != nil {
			return err
		}

		render.RenderSuccess("Logged in")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tokenStore().Clear(); err != nil {
			return err
		}
		render.RenderSuccess("Logged out")
		return nil
	},
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Inspect authentication state",
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := tokenStore()

		tok, err := store.Load()
		if err != nil {
			if errors.Is(err, auth.ErrNoToken) {
				render.RenderWarning("Not logged in")
				render.RenderInfo(fmt.Sprintf("Token file not found: %s", store.Path()))
				render.RenderInfo("Run 'pplx login' to sign in")
				return nil
			}
			return err
		}

		if tok.Expired(time.Now()) {
			render.RenderWarning("Token expired")
			render.RenderInfo("Run 'pplx login' to sign in again")
		} else {
			render.RenderSuccess("Authenticated")
		}

		fmt.Printf("Token file: %s\n", store.Path())
		if tok.Email != "" {
			fmt.Printf("Account:    %s\n", tok.Email)
		}
		if tok.ExpiresAt != nil {
			fmt.Printf("Expires:    %s\n", tok.ExpiresAt.Format(time.RFC3339))
		}
		return nil
	},
}

var authPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the token file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(tokenStore().Path())
		return nil
	},
}

func prompt(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	loginCmd.Flags().StringVar(&flagLoginEmail, "email", "", "Email address to sign in with")
	loginCmd.Flags().BoolVar(&flagLoginFromApp, "from-app", false, "Import the token from an installed desktop app")

	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authPathCmd)
}

package command

import (
	"fmt"

	"reviewhub/cmd/cli/authentication"
	"reviewhub/cmd/cli/command/client"

	"github.com/spf13/cobra"
)

// authCmd represents the auth command for authentication related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Sign up with a confirmation code, store the access token and inspect the current account.`,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Request a confirmation code by email",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")

		resp, err := client.NewHTTPClient(apiURL).RequestCode(cmd.Context(), email)
		if err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Confirmation code sent to %s (username %s)\n", resp.Email, resp.Username)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Exchange a confirmation code for an access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		code, _ := cmd.Flags().GetString("code")

		resp, err := client.NewHTTPClient(apiURL).ExchangeCode(cmd.Context(), email, code)
		if err != nil {
			return fmt.Errorf("token exchange failed: %w", err)
		}
		creds := &authentication.StoredCredentials{AccessToken: resp.Token, Email: email, APIURL: apiURL}
		if err := authentication.StoreTokens(creds); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged in, token stored in the keyring")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account of the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := authentication.GetTokens()
		if err != nil {
			return err
		}
		httpClient := client.NewHTTPClient(creds.APIURL)
		httpClient.SetToken(creds.AccessToken)

		me, err := httpClient.Me(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s\n", me.Username, me.Email, me.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteTokens(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

func init() {
	authCmd.AddCommand(signupCmd, tokenCmd, whoamiCmd, logoutCmd)

	signupCmd.Flags().StringP("email", "e", "", "Email address for the new account")
	_ = signupCmd.MarkFlagRequired("email")

	tokenCmd.Flags().StringP("email", "e", "", "Email address the code was sent to")
	tokenCmd.Flags().StringP("code", "c", "", "Confirmation code from the email")
	_ = tokenCmd.MarkFlagRequired("email")
	_ = tokenCmd.MarkFlagRequired("code")
}

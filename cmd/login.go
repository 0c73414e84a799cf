// Package cmd implements the command-line interface for crunchy.
package cmd

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/crunchy-cli/crunchy/api"
	"github.com/crunchy-cli/crunchy/color"
	"github.com/crunchy-cli/crunchy/icon"
	"github.com/crunchy-cli/crunchy/key"
	"github.com/crunchy-cli/crunchy/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringP("email", "e", "", "Account email address")
	loginCmd.Flags().StringP("password", "p", "", "Account password (prompted when omitted)")
}

// loginCmd authenticates an account and persists its session credentials.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate an account and persist its session credentials",
	Long: `Authenticate an account and persist the session credentials to the
system keyring. Subsequent commands resolve premium content with the
account's entitlements.`,
	Run: func(cmd *cobra.Command, args []string) {
		email := lo.Must(cmd.Flags().GetString("email"))
		password := lo.Must(cmd.Flags().GetString("password"))

		if email == "" {
			handleErr(survey.AskOne(&survey.Input{Message: "Email:"}, &email, survey.WithValidator(survey.Required)))
		}
		if password == "" {
			handleErr(survey.AskOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(survey.Required)))
		}

		session := api.NewSession(viper.GetString(key.Locale))
		handleErr(session.Login(email, password))

		fmt.Printf(
			"%s logged in as %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Bold(email),
		)
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

// logoutCmd drops the persisted session credentials.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the persisted session credentials from the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		session := api.NewSession(viper.GetString(key.Locale))
		if !session.LoggedIn() {
			handleErr(errors.New("no persisted session found"))
		}

		handleErr(session.Logout())
		fmt.Printf(
			"%s logged out\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
		)
	},
}

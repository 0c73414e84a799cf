// Package cmd implements the command-line interface for crunchy.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/crunchy-cli/crunchy/color"
	"github.com/crunchy-cli/crunchy/constant"
	"github.com/crunchy-cli/crunchy/icon"
	"github.com/crunchy-cli/crunchy/key"
	"github.com/crunchy-cli/crunchy/log"
	"github.com/crunchy-cli/crunchy/style"
	"github.com/crunchy-cli/crunchy/util"
	"github.com/crunchy-cli/crunchy/version"
	"github.com/crunchy-cli/crunchy/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("language", "l", "", "Audio language selection expression, e.g. \"$ja.* > en-US > ~\"")
	lo.Must0(viper.BindPFlag(key.Language, rootCmd.PersistentFlags().Lookup("language")))

	rootCmd.PersistentFlags().StringSliceP("format", "f", []string{}, "Stream types to accept, e.g. adaptive_hls")
	lo.Must0(viper.BindPFlag(key.Format, rootCmd.PersistentFlags().Lookup("format")))

	rootCmd.PersistentFlags().StringSlice("hardsub", []string{}, "Hardsub languages to fully expand ('none' and 'all' included)")
	lo.Must0(viper.BindPFlag(key.Hardsub, rootCmd.PersistentFlags().Lookup("hardsub")))

	rootCmd.PersistentFlags().String("locale", "", "Interface locale sent with every API request")
	lo.Must0(viper.BindPFlag(key.Locale, rootCmd.PersistentFlags().Lookup("locale")))

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, square)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Initialize cleanup of localized temporary files on application startup.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for the crunchy application.
var rootCmd = &cobra.Command{
	Use:   constant.Crunchy,
	Short: "A command-line resolver for audio-language versions and stream formats",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.Orange).Render("    - A command-line resolver for audio-language versions and stream formats"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s %s\n", icon.Get(icon.Fail), style.ErrorTitle("error"), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

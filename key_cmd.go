package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lekman/tts-code/internal/keystore"
)

var (
	keyCmd = &cobra.Command{
		Use:   "key",
		Short: "Manage the ElevenLabs API key",
		Long: paragraph(fmt.Sprintf("\n%s the ElevenLabs API key. The %s environment variable takes precedence over the stored key.",
			keyword("Manage"), keystore.EnvVar)),
		Args: cobra.NoArgs,
	}

	keySetCmd = &cobra.Command{
		Use:     "set [KEY]",
		Short:   "Validate and store an API key",
		Example: paragraph(appName + " key set\n" + appName + " key set sk_..."),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(ttsConfig)
			if err != nil {
				return err
			}
			defer eng.close()

			var key string
			if len(args) > 0 {
				key = args[0]
			} else {
				key, err = keystore.Prompt(os.Stdin, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			if err := eng.keys.SetValidated(key, eng.validator()); err != nil {
				return friendlyError(err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "API key saved to", eng.keys.Path())
			return err
		},
	}

	keyResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := keystore.Default(appName)
			if err != nil {
				return err
			}
			if err := keys.Delete(); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "API key has been reset")
			return err
		},
	}

	keyPathCmd = &cobra.Command{
		Use:   "show-path",
		Short: "Print where the API key is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := keystore.Default(appName)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), keys.Path())
			return err
		},
	}
)

func init() {
	keyCmd.AddCommand(keySetCmd, keyResetCmd, keyPathCmd)
}

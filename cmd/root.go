// Package cmd holds the maleon command line: the HTTP server and cache tools.
package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "maleon",
		Short:         "Maleón conversational backend",
		Long:          "maleon serves the Maleón chat API (cached replies, the Gemini persona agent, municipal lookups and speech) and inspects its reply cache.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newCacheCmd(opts),
	)
	return rootCmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibbank/guarantee-messaging/pkg/observability"
)

type rootFlags struct {
	logLevel string
}

// NewCommand returns the root swiftctl command with every subcommand attached.
func NewCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "swiftctl",
		Short: "swiftctl encodes, decodes and validates guarantee messages",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(observability.InitLogger(observability.LogConfig{
				Level:  flags.logLevel,
				Format: "text",
				Writer: cmd.ErrOrStderr(),
			}))
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.logLevel, "loglevel", "warn", "log level")

	cmd.AddCommand(newDecodeCommand())
	cmd.AddCommand(newEncodeCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newGenCertsCommand())
	cmd.AddCommand(newRemoteCommand())
	return cmd
}

// readInput reads the named file, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

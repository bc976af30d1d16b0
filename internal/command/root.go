package command

import (
	"github.com/cirruslabs/asyncoss/internal/command/connection"
	"github.com/cirruslabs/asyncoss/internal/command/get"
	"github.com/cirruslabs/asyncoss/internal/command/ls"
	"github.com/cirruslabs/asyncoss/internal/command/presign"
	"github.com/cirruslabs/asyncoss/internal/command/put"
	"github.com/cirruslabs/asyncoss/internal/command/rm"
	"github.com/cirruslabs/asyncoss/internal/command/url"
	"github.com/cirruslabs/asyncoss/internal/logginglevel"
	"github.com/cirruslabs/asyncoss/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var debug bool

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "asyncoss",
		Short:         "Object storage client that picks the right addressing mode for every request",
		Version:       version.FullVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if debug {
				logginglevel.Level.SetLevel(zapcore.DebugLevel)
			}

			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	connection.AddFlags(cmd)

	cmd.AddCommand(
		url.NewCommand(),
		ls.NewCommand(),
		get.NewCommand(),
		put.NewCommand(),
		rm.NewCommand(),
		presign.NewCommand(),
	)

	return cmd
}

package url

import (
	"fmt"
	"github.com/cirruslabs/asyncoss/internal/command/connection"
	"github.com/spf13/cobra"
)

var showMode bool

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url OSS_URI",
		Short: "Print the request URL of an object without contacting the object storage",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}

	cmd.Flags().BoolVar(&showMode, "mode", false,
		"also print the addressing mode (virtual-hosted, path-style or custom-domain)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	conn, err := connection.New(cmd.Context())
	if err != nil {
		return err
	}

	bucket, key, err := conn.ParseURI(args[0])
	if err != nil {
		return err
	}

	urlMaker, err := conn.URLMaker()
	if err != nil {
		return err
	}

	objectURL, err := urlMaker.Make(bucket, key)
	if err != nil {
		return err
	}

	if showMode {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", urlMaker.Mode(bucket), objectURL)
	} else {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), objectURL)
	}

	return err
}

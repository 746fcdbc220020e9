package root

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	orca "github.com/orca-models/orca/pkg"
	"github.com/orca-models/orca/pkg/cli"
	"github.com/orca-models/orca/pkg/config"
	"github.com/orca-models/orca/pkg/optname"
)

const rootLongDesc = `
orca

orca downloads large model weight blobs over HTTP as fast as the origin allows. The blob is split into a handful of
contiguous parts which are fetched in parallel with range requests and written straight into a pre-sized output file,
so no part ever waits on another and nothing is buffered in memory.

Each part retries on its own with exponential backoff (1s, 2s, 4s, ...) and resumes from the last byte it wrote. If a
part runs out of retries the whole download is aborted and the partial file is removed.
`

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orca [flags] <url> <dest>",
		Short: "orca",
		Long:  rootLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.PersistentStartupProcessFlags()
		},
		RunE:    runRootCMD,
		Args:    cobra.ExactArgs(2),
		Example: `  orca https://example.com/model.gguf model.gguf`,
	}
	cmd.SetUsageTemplate(cli.UsageTemplate)
	err := config.AddRootPersistentFlags(cmd)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return cmd
}

func runRootCMD(cmd *cobra.Command, args []string) error {
	// After we run through the PreRun functions we want to silence usage from being printed
	// on all errors
	cmd.SilenceUsage = true

	urlString := args[0]
	dest := args[1]

	log.Info().Str("url", urlString).
		Str("dest", dest).
		Int("parts", viper.GetInt(optname.Parts)).
		Msg("Initiating")

	if err := cli.EnsureDestinationNotExist(dest); err != nil {
		return err
	}

	return cli.WithPIDFile(func() error {
		return rootExecute(cmd.Context(), urlString, dest)
	})
}

// rootExecute is the main function of the program and encapsulates the general logic
// returns any/all errors to the caller.
func rootExecute(ctx context.Context, urlString, dest string) error {
	coordinator, err := cli.NewCoordinator()
	if err != nil {
		return err
	}
	getter := orca.Getter{Downloader: coordinator}

	_, _, err = getter.DownloadFile(ctx, urlString, dest)
	return err
}

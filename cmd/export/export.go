package export

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	orca "github.com/orca-models/orca/pkg"
	"github.com/orca-models/orca/pkg/cli"
	"github.com/orca-models/orca/pkg/client"
	"github.com/orca-models/orca/pkg/logging"
	"github.com/orca-models/orca/pkg/optname"
	"github.com/orca-models/orca/pkg/registry"
)

const longDesc = `
'export' looks up a model on the registry and downloads its weights blob (e.g. a GGUF file) to <dest>.

The model is given as [namespace/]model[:tag]; the namespace defaults to 'library' and the tag to 'latest'.
`

const exportExamples = `
  orca export llama3 llama3.gguf

  orca export llama3:8b-instruct-q4_K_M llama3-8b.gguf

  orca export --registry registry.example.com someone/finetune:v2 finetune.gguf
`

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export [flags] <model[:tag]> <dest>",
		Short:   "download the weights of a model from the registry",
		Long:    longDesc,
		Args:    cobra.ExactArgs(2),
		RunE:    runExportCMD,
		Example: exportExamples,
	}
	cmd.Flags().String(optname.Registry, registry.DefaultHost, "Registry host to resolve models against")
	cmd.SetUsageTemplate(cli.UsageTemplate)
	return cmd
}

func runExportCMD(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if err := viper.BindPFlag(optname.Registry, cmd.Flags().Lookup(optname.Registry)); err != nil {
		return err
	}
	ref, err := registry.ParseReference(args[0])
	if err != nil {
		return err
	}
	dest := args[1]

	logger := logging.GetLogger()
	logger.Info().
		Str("model", ref.String()).
		Str("dest", dest).
		Str("registry", viper.GetString(optname.Registry)).
		Msg("Initiating")

	if err := cli.EnsureDestinationNotExist(dest); err != nil {
		return err
	}
	return cli.WithPIDFile(func() error {
		return exportExecute(cmd.Context(), ref, dest)
	})
}

func exportExecute(ctx context.Context, ref registry.Reference, dest string) error {
	coordinator, err := cli.NewCoordinator()
	if err != nil {
		return err
	}
	clientOpts, err := cli.ClientOptions()
	if err != nil {
		return err
	}
	getter := orca.Getter{
		Downloader: coordinator,
		Resolver:   registry.NewResolver(client.NewHTTPClient(clientOpts), viper.GetString(optname.Registry)),
	}

	if _, _, err := getter.ExportModel(ctx, ref, dest); err != nil {
		return fmt.Errorf("export of %s failed: %w", ref, err)
	}
	return nil
}

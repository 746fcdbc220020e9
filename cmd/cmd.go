package cmd

import (
	"github.com/spf13/cobra"

	"github.com/orca-models/orca/cmd/export"
	"github.com/orca-models/orca/cmd/root"
	"github.com/orca-models/orca/cmd/version"
)

func GetRootCommand() *cobra.Command {
	rootCMD := root.GetCommand()
	rootCMD.AddCommand(export.GetCommand())
	rootCMD.AddCommand(version.VersionCMD)
	return rootCMD
}

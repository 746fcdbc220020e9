package main

import (
	"os"

	"github.com/orca-models/orca/cmd"
	"github.com/orca-models/orca/pkg/logging"
)

func main() {
	logging.SetupLogger()
	rootCMD := cmd.GetRootCommand()

	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}

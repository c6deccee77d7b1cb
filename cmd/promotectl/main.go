package main

import (
	"os"
)

func main() {
	root := newRoot()
	rootCmd := root.Command()

	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		cmd.PrintErrln("Error:", err)
		if help := helpful(err); help != "" {
			cmd.PrintErrln("")
			cmd.PrintErrln(help)
		}
		switch err.(type) {
		case usageError, *usageError:
			cmd.Println("")
			cmd.Println(cmd.UsageString())
		}
	}
	if merr := root.writeMetrics(); merr != nil {
		root.logError(merr)
	}
	if err != nil {
		os.Exit(1)
	}
}

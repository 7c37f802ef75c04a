// Command remedyd runs the remediation engine inside a simulated host world
// and serves the operator surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "remedyd",
	Short:         "Entity remediation daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd, checkConfigCmd, statusCmd, requestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "remedyd:", err)
		os.Exit(1)
	}
}

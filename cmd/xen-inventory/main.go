package main

import "github.com/spf13/cobra"

func main() {
	// CheckErr prints the error, if there is any, and exits non-zero.
	cobra.CheckErr(rootCmd.Execute())
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build info, injected via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "agromarket",
	Short: "AgroMarket farm-to-consumer marketplace",
	Long:  `AgroMarket is the backend for a farm-to-consumer marketplace: catalog, inventory and order management.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

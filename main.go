package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cl "github.com/corraldb/corral/client"
	sr "github.com/corraldb/corral/server"
)

var rootCmd = &cobra.Command{
	Use:   "corral",
	Short: "REST repository client and reference backend",
}

func init() {
	rootCmd.AddCommand(sr.CMD)
	cl.RegisterCommands(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

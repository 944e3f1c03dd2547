package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/synthd/cmd/fetch"
	"github.com/ValentinKolb/synthd/cmd/pose"
	"github.com/ValentinKolb/synthd/cmd/serve"
	"github.com/ValentinKolb/synthd/cmd/util"
	"github.com/ValentinKolb/synthd/lib/capture"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "synthd",
		Short: "synthetic pose and image stream server",
		Long: fmt.Sprintf(`synthd (v%s)

A deterministic stream server for synthetic training data. Every index sent
by the client yields a reproducible object pose and one rendered image per
camera.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of synthd",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("synthd v%s\n", Version)
		},
	}
	backendsCmd = &cobra.Command{
		Use:   "backends",
		Short: "List the available capture backends",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range capture.Backends() {
				fmt.Println(name)
			}
		},
	}
)

func init() {
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(fetch.FetchCmd)
	RootCmd.AddCommand(pose.PoseCmd)
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(backendsCmd)

	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/cmdclient/cmd/bench"
	"github.com/ValentinKolb/cmdclient/cmd/command"
	"github.com/ValentinKolb/cmdclient/cmd/util"
	"github.com/ValentinKolb/cmdclient/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "cmdc",
		Short: "command client for remote workstation control",
		Long: fmt.Sprintf(`cmdc (v%s)

A client that sends framed commands (lock, restart, log off, messages, ...)
to a peer over a single shared stream.`, Version),
		PersistentPreRunE: setup,
		SilenceUsage:      true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of cmdc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cmdc v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add Commands
	RootCmd.AddCommand(command.SendCmd)
	RootCmd.AddCommand(command.EncodeCmd)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupClientFlags(RootCmd)
}

// setup binds the flags of the executed command and configures the loggers
func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return common.InitLoggers(viper.GetString("log-level"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

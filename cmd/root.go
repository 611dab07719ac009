// Package cmd is the hgtmatch command line
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/yumyai/hgtmatch/logger"
	"github.com/yumyai/hgtmatch/pkg/config"
)

const version = "0.1.0"

var configFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:          "hgtmatch",
	Short:        "Detect horizontal gene transfer candidates between genome groups from all-vs-all blastn results",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zapcore.InfoLevel
		switch {
		case viper.GetBool("quiet"):
			level = zapcore.WarnLevel
		case viper.GetBool("verbose"):
			level = zapcore.DebugLevel
		}
		return logger.InitLogger(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges flags, environment and config file.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper(), configFile)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./hgtmatch.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug messages")

	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

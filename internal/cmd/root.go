package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logDir    string
	outputFmt string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "signalk-logbook",
	Short: "Semi-automatic electronic logbook for sailing vessels",
	Long: `signalk-logbook keeps a vessel logbook as one YAML file per calendar
date. It subscribes to a Signal K server, detects log-worthy state
transitions (anchor up, sails hoisted, engine started) and writes
entries automatically, alongside entries submitted by the crew.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.signalk-logbook.yaml)")
	rootCmd.PersistentFlags().StringVarP(&logDir, "dir", "d", "", "logbook directory (default: $HOME/.signalk-logbook)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "output format: text, json")

	viper.SetDefault("dir", defaultLogDir())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".signalk-logbook")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// dataDir resolves the logbook directory from the flag or config.
func dataDir() string {
	if logDir != "" {
		return logDir
	}
	return viper.GetString("dir")
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".signalk-logbook"
	}
	return filepath.Join(home, ".signalk-logbook")
}

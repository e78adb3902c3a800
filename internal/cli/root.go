package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/duckling/internal/model"
)

// Version is overridden at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "duckling",
	Short: "Duckling - typed entity extraction client",
	Long: `duckling sends text to a Duckling entity-extraction service and decodes
its answer into typed entities: times with grains and intervals, distances,
quantities, numerals, ordinals, emails and URLs.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (DUCKLING_*)
3. Config file (~/.duckling/config.yaml)
4. Defaults`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "duckling %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.duckling/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("base-url", "", "Duckling service base URL")
	flags.String("tz", "", "IANA time zone for requests and decoding (default: local zone)")
	flags.String("locale", "", "request locale, e.g. en_US")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("server.base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("locale.timezone", flags.Lookup("tz"))
	_ = viper.BindPFlag("locale.locale", flags.Lookup("locale"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	model.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".duckling"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// DUCKLING_SERVER_BASE_URL overrides server.base_url
	viper.SetEnvPrefix("DUCKLING")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// expandHome resolves a leading ~ in configured paths
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

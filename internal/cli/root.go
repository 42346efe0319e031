package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/groundcheck/internal/model"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "0.1.0"

const envPrefix = "GROUNDCHECK"

var (
	cfgFile string
	verbose bool
	noCache bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "groundcheck",
	Short: "groundcheck - heuristic grounding checks for LLM responses",
	Long: `groundcheck estimates whether a language model's answer is grounded in
encyclopedic knowledge.

For each prompt it extracts candidate subjects, resolves them to a Wikipedia
article and measures the word overlap between the article summary and the
response. Verdicts are "likely correct" or "likely hallucinated".

The check is lexical. It signals relatedness, not truth, and every verdict
can be overridden by a human label before the hallucination rate is computed.`,
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
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "groundcheck v%s\n", Version)
	},
}

// flagBindings maps persistent flags to config keys
var flagBindings = map[string]string{
	"lang":        "knowledge.language",
	"offline":     "knowledge.offline",
	"ua":          "http.user_agent",
	"timeout":     "http.timeout",
	"http-proxy":  "http.http_proxy",
	"https-proxy": "http.https_proxy",
	"workers":     "concurrency.workers",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := model.DefaultConfig()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.groundcheck/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&noCache, "no-cache", false, "disable the lookup cache")

	flags.String("lang", defaults.Knowledge.Language, "Wikipedia language edition")
	flags.String("offline", "", "resolve articles from a YAML fixtures file instead of Wikipedia")
	flags.String("ua", defaults.HTTP.UserAgent, "HTTP User-Agent")
	flags.Duration("timeout", defaults.HTTP.Timeout, "timeout for a single knowledge lookup")
	flags.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	flags.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	flags.Int("workers", defaults.Concurrency.Workers, "concurrent verifications in batch runs")
	flags.String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Log.Format, "log format (console, json)")

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	// A local .env may carry GROUNDCHECK_* settings; real env vars win
	_ = godotenv.Load()

	if err := setDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting config defaults: %v\n", err)
	}

	for flag, key := range flagBindings {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".groundcheck"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// GROUNDCHECK_KNOWLEDGE_LANGUAGE -> knowledge.language
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key of cfg so env vars can override it
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	setTree(v, "", tree)

	// Omitted from YAML when empty
	for _, key := range []string{
		"knowledge.endpoint", "knowledge.offline",
		"http.http_proxy", "http.https_proxy", "http.no_proxy",
	} {
		v.SetDefault(key, "")
	}
	return nil
}

func setTree(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]interface{}); ok {
			setTree(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// loadConfig resolves the effective configuration:
// flags > env (GROUNDCHECK_*) > config file > defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

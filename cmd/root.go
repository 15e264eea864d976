package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/swipe-responder/internal/scoring"
	"github.com/spigell/swipe-responder/internal/swipe"
	"github.com/spigell/swipe-responder/internal/tinder"
)

const (
	app = "swipe-responder"

	tokenEnv     = "TINDER_TOKEN"
	tokenFileEnv = "TINDER_TOKEN_FILE"
)

type Config struct {
	TokenFile string `mapstructure:"token-file"`
	Token     string `mapstructure:"token"`
	// Likes is the quota of likes for the run command.
	Likes int `mapstructure:"likes"`

	Transport tinder.ClientConfig `mapstructure:"transport"`
	Weights   scoring.Config      `mapstructure:"weights"`
	Pacing    swipe.PacingConfig  `mapstructure:"pacing"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "swipe-responder is a simple cli for scoring recommended profiles and swiping on them at a human pace",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("token-file", tokenFileEnv); err != nil {
		log.Fatalf("binding %s environment variable: %v", tokenFileEnv, err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is swipe-responder.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Only commands talking to the API need a config.
	if runCmd.CalledAs() == "" && matchesCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Built-in defaults and the environment are enough to run without a file.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

// getConfig returns the config with defaults for everything not set.
// Interest and city tables from the config file replace the built-in ones as a whole.
func getConfig() (*Config, error) {
	defaults := scoring.DefaultConfig()

	config := &Config{
		Transport: tinder.DefaultClientConfig(),
		Weights:   defaults,
		Pacing:    swipe.DefaultPacing(),
	}
	config.Weights.Interests = nil
	config.Weights.Cities = nil

	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	if config.Weights.Interests == nil {
		config.Weights.Interests = defaults.Interests
	}
	if config.Weights.Cities == nil {
		config.Weights.Cities = defaults.Cities
	}

	return config, nil
}

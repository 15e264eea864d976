package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/swipe-responder/internal/logger"
	"github.com/spigell/swipe-responder/internal/scoring"
	"github.com/spigell/swipe-responder/internal/secrets"
	"github.com/spigell/swipe-responder/internal/swipe"
	"github.com/spigell/swipe-responder/internal/tinder"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	sessionHint = "the auth token has expired or is wrong; get a fresh one and update " + tokenEnv + " or " + tokenFileEnv
)

var errInvalidLikes = errors.New("number of likes must be a positive integer")

var runCmd = &cobra.Command{
	Use:   "run [likes]",
	Short: "Score recommended profiles and like the better half of every batch until the quota is reached",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before swiping")
	runCmd.Flags().IntP("likes", "l", 0, "number of likes to hand out (the positional argument takes precedence)")

	viper.BindPFlag("likes", runCmd.Flags().Lookup("likes"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseLogger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer baseLogger.Sync()

	config, err := getConfig()
	if err != nil {
		baseLogger.Fatal("getting a config", zap.Error(err))
	}

	runLogger := logger.WithRunFields(baseLogger, uuid.NewString(), "")
	runLogger.Info("starting the swipe-responder", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	runLogger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	quota, err := resolveLikes(config, args)
	if err != nil {
		runLogger.Fatal("resolving the number of likes", zap.Error(err), zap.String("hint", "pass it as 'run <likes>' or set 'likes' in the config"))
	}

	weights, err := scoring.NewWeightTable(config.Weights)
	if err != nil {
		runLogger.Fatal("building the weight table", zap.Error(err))
	}

	client, err := newClient(config, runLogger)
	if err != nil {
		runLogger.Fatal("loading tinder token", zap.Error(err),
			zap.String("hint", "set "+tokenEnv+" or "+tokenFileEnv+" environment variable, or 'token'/'token-file' in the configuration file"),
		)
	}

	account, err := client.GetProfile(ctx)
	if err != nil {
		fatalAPIError(runLogger, "getting own profile", err)
	}

	runLogger = logger.WithFields(runLogger, logger.RunFields("", account.ID)...)
	runLogger.Info("logged in", zap.String("name", account.Name), zap.Int("likes", quota))

	if cmd.Flag("auto-approve").Value.String() == "false" {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Hand out %d likes?", quota),
			Items: []string{PromptYes, PromptNo},
		}

		_, action, err := prompt.Run()
		if err != nil {
			runLogger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			runLogger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	controller, err := swipe.New(config.Pacing, swipe.Deps{
		Source:  client,
		Sink:    client,
		Weights: weights,
		Logger:  runLogger,
	})
	if err != nil {
		runLogger.Fatal("creating the controller", zap.Error(err))
	}

	summary, err := controller.Run(ctx, quota)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			runLogger.Info("interrupted", summaryFields(summary)...)
			return
		}
		runLogger.Error("swiping stopped", summaryFields(summary)...)
		fatalAPIError(runLogger, "swiping", err)
	}

	runLogger.Info("done", summaryFields(summary)...)
}

// resolveLikes prefers the positional argument over the configured quota.
func resolveLikes(config *Config, args []string) (int, error) {
	likes := config.Likes
	if len(args) > 0 {
		n, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errInvalidLikes, args[0])
		}
		likes = n
	}

	if likes <= 0 {
		return 0, fmt.Errorf("%w: got %d", errInvalidLikes, likes)
	}

	return likes, nil
}

func resolveToken(config *Config) (string, error) {
	if config == nil {
		return "", errors.New("config is required")
	}

	tokenFile := strings.TrimSpace(config.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("token-file"))
	}

	return secrets.Load(secrets.Source{
		Name:  "tinder token",
		File:  tokenFile,
		Env:   tokenEnv,
		Value: config.Token,
	})
}

func newClient(config *Config, l *zap.Logger) (*tinder.Client, error) {
	token, err := resolveToken(config)
	if err != nil {
		return nil, err
	}

	return tinder.New(l, token, config.Transport), nil
}

func fatalAPIError(l *zap.Logger, step string, err error) {
	if errors.Is(err, tinder.ErrSessionInvalid) {
		l.Fatal(step, zap.Error(err), zap.String("hint", sessionHint))
	}
	l.Fatal(step, zap.Error(err))
}

func summaryFields(s *swipe.Summary) []zap.Field {
	if s == nil {
		return nil
	}

	return []zap.Field{
		zap.Int("rounds", s.Rounds),
		zap.Int("likes", s.Likes),
		zap.Int("passes", s.Passes),
		zap.Int("matches", s.Matches),
		zap.Float64("average_median", s.AverageMedian),
	}
}

// redacted returns a copy of the config that is safe to log.
func redacted(config *Config) Config {
	c := *config
	if c.Token != "" {
		c.Token = "***"
	}
	return c
}

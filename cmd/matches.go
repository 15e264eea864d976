package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/swipe-responder/internal/logger"
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List the latest matches",
	Run: func(cmd *cobra.Command, _ []string) {
		matches(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)

	matchesCmd.Flags().IntP("count", "c", 10, "how many matches to show")
}

func matches(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer l.Sync()

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	count, err := cmd.Flags().GetInt("count")
	if err != nil {
		l.Fatal("reading count flag", zap.Error(err))
	}

	client, err := newClient(config, l)
	if err != nil {
		l.Fatal("loading tinder token", zap.Error(err))
	}

	found, err := client.GetMatches(ctx, count)
	if err != nil {
		fatalAPIError(l, "getting matches", err)
	}

	for _, m := range found.Items {
		l.Info("match",
			zap.String("match_id", m.ID),
			zap.String("name", m.Person.Name),
			zap.String("created", m.CreatedDate),
		)
	}

	l.Info("latest matches", zap.Int("count", found.Len()))
}

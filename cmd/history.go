package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent applications stored in the database",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()

		logger := newLogger()
		config := loadConfig(logger)

		if !config.Database.Enabled {
			logger.Fatal("history requires a database", zap.String("hint", "set database.enabled and database.dsn"))
		}

		rt, err := setup(ctx, config, logger)
		if err != nil {
			logger.Fatal("preparing the matcher", zap.Error(err))
		}
		defer rt.Close()

		id, _ := cmd.Flags().GetUint("matches")
		if id != 0 {
			matches, err := rt.service.Matches(ctx, id)
			if err != nil {
				logger.Fatal("listing matches", zap.Error(err))
			}
			printMatches(os.Stdout, matches)
			return
		}

		limit, _ := cmd.Flags().GetInt("limit")
		apps, err := rt.service.History(ctx, limit)
		if err != nil {
			logger.Fatal("listing applications", zap.Error(err))
		}
		printApplications(os.Stdout, apps)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "l", storage.DefaultListLimit, "number of applications to show")
	historyCmd.Flags().Uint("matches", 0, "show the stored matches of this application id")
}

func printApplications(w io.Writer, apps []storage.Application) {
	if len(apps) == 0 {
		fmt.Fprintln(w, "No applications stored yet.")
		return
	}

	for _, a := range apps {
		fmt.Fprintf(w, "%d  %s  %s  %s/%s  %d  %s\n",
			a.ID,
			a.CreatedAt.Format("2006-01-02 15:04"),
			a.FullName,
			a.ApplicantType,
			a.NeedCategory,
			a.RequestedAmount,
			a.Reference,
		)
	}
}

func printMatches(w io.Writer, matches []storage.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No matches stored for this application.")
		return
	}

	for i, m := range matches {
		fmt.Fprintf(w, "%d. %s (%s) score %d [%s]\n", i+1, m.FoundationName, m.FoundationID, m.Score, m.Status)
	}
}

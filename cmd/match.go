package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/app"
	"github.com/spigell/grant-matcher/internal/applicant"
	"github.com/spigell/grant-matcher/internal/review"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank foundations for an applicant profile and write a first draft",
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("profile", "p", "", "applicant profile file (yaml or json)")
	matchCmd.Flags().BoolP("interactive", "i", false, "fill in the applicant profile interactively")
	matchCmd.Flags().IntP("top", "n", 0, "number of foundations to show (default from top-matches)")
	matchCmd.Flags().Bool("ai", false, "use AI interpretation and drafting when configured")
	matchCmd.Flags().Bool("web", false, "run web research for further foundations (requires --ai)")
	matchCmd.Flags().String("draft-out", "", "write the application draft to this file")
}

func runMatch(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLogger()
	config := loadConfig(logger)

	logger.Info("starting the grant-matcher", zap.String("version", version))

	input, err := readInput(cmd)
	if err != nil {
		logger.Fatal("reading applicant profile", zap.Error(err))
	}

	profile, err := applicant.New(input)
	if err != nil {
		var verrs applicant.ValidationErrors
		if errors.As(err, &verrs) {
			logger.Fatal("applicant profile is invalid", zap.Any("fields", verrs.Fields()))
		}
		logger.Fatal("applicant profile is invalid", zap.Error(err))
	}

	rt, err := setup(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the matcher", zap.Error(err))
	}
	defer rt.Close()

	useAI := config.AI.Enabled
	if cmd.Flags().Changed("ai") {
		useAI, _ = cmd.Flags().GetBool("ai")
	}
	web := config.AI.WebResearch
	if cmd.Flags().Changed("web") {
		web, _ = cmd.Flags().GetBool("web")
	}
	top, _ := cmd.Flags().GetInt("top")

	sub, err := rt.service.Submit(ctx, profile, app.Options{
		UseAI:       useAI,
		WebResearch: web,
		TopN:        top,
	})
	if err != nil {
		logger.Fatal("matching failed", zap.Error(err))
	}

	printSubmission(os.Stdout, sub)

	if out, _ := cmd.Flags().GetString("draft-out"); out != "" {
		if err := os.WriteFile(out, []byte(sub.Draft+"\n"), 0o600); err != nil {
			logger.Fatal("writing draft", zap.Error(err))
		}
		logger.Info("draft written", zap.String("filename", out))
	}
}

func readInput(cmd *cobra.Command) (applicant.Input, error) {
	path, _ := cmd.Flags().GetString("profile")
	interactive, _ := cmd.Flags().GetBool("interactive")

	switch {
	case path != "":
		return readProfileFile(path)
	case interactive:
		return promptProfile()
	default:
		return applicant.Input{}, errors.New("either --profile or --interactive is required")
	}
}

// readProfileFile decodes a profile file with its own viper instance so it
// does not mix with the application config. Keys are the snake_case names of
// the HTTP body; unknown keys are an error so a misspelled document flag or
// amount is not silently dropped.
func readProfileFile(path string) (applicant.Input, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return applicant.Input{}, fmt.Errorf("reading profile file: %w", err)
	}

	var input applicant.Input
	if err := v.Unmarshal(&input, func(c *mapstructure.DecoderConfig) {
		c.ErrorUnused = true
	}); err != nil {
		return applicant.Input{}, fmt.Errorf("decoding profile file: %w", err)
	}
	return input, nil
}

func printSubmission(w io.Writer, sub *app.Submission) {
	fmt.Fprintf(w, "Reference: %s\n", sub.Reference)
	if sub.ApplicationID != 0 {
		fmt.Fprintf(w, "Application id: %d\n", sub.ApplicationID)
	}

	if len(sub.Matches) == 0 {
		fmt.Fprintln(w, "\nNo matching foundations found.")
	}

	for i, r := range sub.Matches {
		rv := sub.Reviews[i]
		fmt.Fprintf(w, "\n%d. %s (%s) score %d [%s]\n", i+1, rv.FoundationName, rv.FoundationID, r.Score, rv.Status)
		if r.Foundation != nil && r.Foundation.ApplicationURL != "" {
			fmt.Fprintf(w, "   %s\n", r.Foundation.ApplicationURL)
		}
		for _, reason := range r.Reasons {
			fmt.Fprintf(w, "   + %s\n", reason)
		}
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "   ! %s\n", warning)
		}

		checks := make([]string, 0, len(rv.Checks))
		for _, item := range rv.Checks {
			checks = append(checks, item.Label+": "+string(item.Outcome))
		}
		fmt.Fprintf(w, "   checks: %s\n", strings.Join(checks, ", "))
		fmt.Fprintf(w, "   next step: %s\n", review.NextStep(r))
	}

	if sub.Insights != nil && sub.Insights.ConciseSummary != "" {
		fmt.Fprintf(w, "\nAI summary: %s\n", sub.Insights.ConciseSummary)
	}

	for _, notice := range sub.Notices {
		fmt.Fprintf(w, "\nNotice: %s\n", notice)
	}

	fmt.Fprintf(w, "\n--- Draft ---\n%s\n", sub.Draft)

	if sub.Research != "" {
		fmt.Fprintf(w, "\n--- Web research ---\n%s\n", sub.Research)
	}
}

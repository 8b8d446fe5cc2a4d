package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/hyperjump/jobscout/internal/app"
	"github.com/hyperjump/jobscout/internal/cli"
	"github.com/hyperjump/jobscout/internal/pipeline"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Scrape, index and answer one question about job postings",
	Long: `Scrape postings for --title across --locations (skipped when both are unchanged or the title is empty),
bring the semantic index up to date, read the optional résumé and answer the question.

Examples:
  jobscout ask --title "Data Engineer" --locations "Berlin, Remote" --resume cv.pdf "Which jobs suit me?"
  jobscout ask --interactive`,
	RunE: runAsk,
}

var (
	askTitle       string
	askLocations   string
	askResume      string
	askOutput      string
	askInteractive bool
)

func init() {
	askCmd.Flags().StringVarP(&askTitle, "title", "t", "", "job title to scrape; empty queries the existing corpus")
	askCmd.Flags().StringVarP(&askLocations, "locations", "l", "", "comma-separated locations")
	askCmd.Flags().StringVarP(&askResume, "resume", "r", "", "path to your résumé (pdf, docx, odt, rtf, xlsx, txt, md)")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "text", "output format: text, compact, or json")
	askCmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "prompt for the inputs")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(askOutput)
	if err != nil {
		return err
	}
	req := pipeline.Request{
		JobTitle:   askTitle,
		Locations:  askLocations,
		ResumePath: askResume,
		Question:   buildQuery(args),
	}
	if askInteractive {
		if req, err = promptRequest(req); err != nil {
			return err
		}
	}
	if err := validateQuestion(req.Question); err != nil {
		return errors.WithHint(err, `pass the question as arguments or use --interactive`)
	}
	if err := validateResumePath(req.ResumePath); err != nil {
		return err
	}

	return withComponents(func(ctx context.Context, c *app.Components) error {
		res, err := c.Session.Run(ctx, req)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), pipeline.ErrorMessage(err))
			return errReported
		}
		return cli.WriteAnswer(cmd.OutOrStdout(), res, format)
	})
}

// buildQuery joins positional args so multi-word questions work with or without quotes.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func validateQuestion(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("question is required")
	}
	return nil
}

func validateResumePath(s string) error {
	if s == "" {
		return nil
	}
	info, err := os.Stat(s)
	if err != nil {
		return errors.Wrapf(err, "résumé %s", s)
	}
	if info.IsDir() {
		return errors.Newf("résumé %s is a directory", s)
	}
	return nil
}

// promptRequest asks for every field, offering the flag values as defaults.
func promptRequest(req pipeline.Request) (pipeline.Request, error) {
	fields := []struct {
		label    string
		dst      *string
		validate promptui.ValidateFunc
	}{
		{"Job title", &req.JobTitle, nil},
		{"Locations (comma-separated)", &req.Locations, nil},
		{"Résumé path (optional)", &req.ResumePath, validateResumePath},
		{"Question", &req.Question, validateQuestion},
	}
	for _, f := range fields {
		p := promptui.Prompt{Label: f.label, Default: *f.dst, AllowEdit: true, Validate: f.validate}
		v, err := p.Run()
		if err != nil {
			return req, errors.Wrap(err, "prompt aborted")
		}
		*f.dst = strings.TrimSpace(v)
	}
	return req, nil
}

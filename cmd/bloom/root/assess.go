package root

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mindbloom/internal/questionnaire"
	"mindbloom/internal/ui"
)

func newQuestionnairesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "questionnaires",
		Short: "List the available self-assessments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printCatalog(cmd.OutOrStdout(), questionnaire.Default())
			return nil
		},
	}
}

func printCatalog(out io.Writer, c *questionnaire.Catalog) {
	fmt.Fprintln(out, ui.Heading(ui.IconNote, "Self-assessments"))
	for _, q := range c.All() {
		fmt.Fprintf(out, "- %s %s %s\n", ui.Key.Render(q.ID), q.Title,
			ui.Muted.Render(fmt.Sprintf("(%s, %d questions)", q.Category, len(q.Questions))))
	}
}

func newAssessCmd() *cobra.Command {
	var answers string
	cmd := &cobra.Command{
		Use:   "assess [id]",
		Short: "Take a self-assessment",
		Long:  "Take a self-assessment. Answers are read one per line from stdin, or all at once with --answers.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := questionnaire.Default()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				printCatalog(out, catalog)
				fmt.Fprintln(out, ui.Muted.Render("Run `bloom assess <id>` to start one."))
				return nil
			}

			q, ok := catalog.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", questionnaire.ErrUnknownQuestionnaire, args[0])
			}

			var responses map[string]int
			var err error
			if cmd.Flags().Changed("answers") {
				responses, err = parseAnswers(q, answers)
			} else {
				responses, err = promptAnswers(cmd.InOrStdin(), out, q)
			}
			if err != nil {
				return err
			}

			res, err := catalog.Evaluate(q.ID, responses)
			if err != nil {
				return err
			}
			printResult(out, q, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&answers, "answers", "", "Comma-separated answers in question order")
	return cmd
}

func parseAnswers(q questionnaire.Questionnaire, raw string) (map[string]int, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != len(q.Questions) {
		return nil, fmt.Errorf("%s has %d questions, got %d answers", q.ID, len(q.Questions), len(parts))
	}
	responses := make(map[string]int, len(parts))
	for i, p := range parts {
		qq := q.Questions[i]
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || !qq.Accepts(v) {
			return nil, fmt.Errorf("answer %d must be between 0 and %d", i+1, qq.MaxResponse())
		}
		responses[qq.ID] = v
	}
	return responses, nil
}

func promptAnswers(in io.Reader, out io.Writer, q questionnaire.Questionnaire) (map[string]int, error) {
	fmt.Fprintln(out, ui.Heading(ui.IconNote, q.Title))
	fmt.Fprintln(out, ui.Muted.Render(q.Description))

	scanner := bufio.NewScanner(in)
	responses := make(map[string]int, len(q.Questions))
	for i, qq := range q.Questions {
		fmt.Fprintln(out, "")
		fmt.Fprintf(out, "%s %s\n", ui.Key.Render(fmt.Sprintf("%d/%d", i+1, len(q.Questions))), qq.Text)
		if choices := qq.Choices(); choices != nil {
			for v, c := range choices {
				fmt.Fprintf(out, "  %d) %s\n", v, c)
			}
		} else {
			fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("  0 = %s ... %d = %s", qq.MinLabel, qq.MaxResponse(), qq.MaxLabel)))
		}
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, err
				}
				return nil, errors.New("assessment cancelled")
			}
			v, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err == nil && qq.Accepts(v) {
				responses[qq.ID] = v
				break
			}
			fmt.Fprintln(out, ui.Warn.Render(fmt.Sprintf("Please answer with a number from 0 to %d.", qq.MaxResponse())))
		}
	}
	return responses, nil
}

func printResult(out io.Writer, q questionnaire.Questionnaire, res questionnaire.Result) {
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, ui.Heading(ui.IconChart, q.Title+" results"))
	fmt.Fprintln(out, ui.LabelValue("Score", fmt.Sprintf("%d/%d", res.Score, res.DisplayedMax)))
	if res.Band == nil {
		fmt.Fprintln(out, ui.Warn.Render("This score falls outside the interpretation guide."))
	} else {
		fmt.Fprintln(out, ui.LabelValue("Level", ui.H2.Render(res.Band.Level)))
		fmt.Fprintln(out, ui.Panel.Render(res.Band.Advice))
	}
	fmt.Fprintln(out, ui.Muted.Render("This is a screening aid, not a diagnosis. Please talk to a professional if you're concerned."))
}

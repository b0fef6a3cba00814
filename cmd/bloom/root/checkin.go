package root

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mindbloom/internal/models"
	"mindbloom/internal/progress"
	"mindbloom/internal/services"
	"mindbloom/internal/ui"
)

// now is swapped out by tests.
var now = time.Now

func newCheckInCmd() *cobra.Command {
	var (
		mood, stress int
		thoughts     string
		heartRate    int
		sleepHours   float64
	)
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Record today's mood and stress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			req := services.CheckInRequest{MoodScore: mood, StressLevel: stress, Thoughts: thoughts}
			if cmd.Flags().Changed("heart-rate") {
				req.HeartRate = &heartRate
			}
			if cmd.Flags().Changed("sleep") {
				req.SleepHours = &sleepHours
			}

			svc := services.NewCheckInService(a.store, a.logger)
			before := a.store.GetProgress()
			res, err := svc.CheckIn(req, now())
			if err != nil {
				if errors.Is(err, services.ErrAlreadyCheckedIn) {
					return errors.New("you've already checked in today, come back tomorrow")
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconCheck, "Check-in saved"))
			printEntry(out, res.Entry)
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, ui.LabelValue("Streak", fmt.Sprintf("%s %d day(s)", ui.IconFire, res.Progress.CurrentStreak)))
			if res.Progress.AvatarLevel > before.AvatarLevel {
				stage := progress.StageFor(res.Progress.AvatarLevel)
				fmt.Fprintln(out, ui.Gold.Render(fmt.Sprintf("LEVEL UP! You grew into a %s %s", stage.Emoji, stage.Name)))
			}
			for _, id := range res.NewBadges {
				if b, ok := progress.BadgeByID(id); ok {
					fmt.Fprintln(out, ui.Gold.Render(fmt.Sprintf("New badge: %s %s", b.Icon, b.Name)))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&mood, "mood", "m", 0, "Mood score (1-10)")
	cmd.Flags().IntVarP(&stress, "stress", "s", 0, "Stress level (1-10)")
	cmd.Flags().StringVarP(&thoughts, "thoughts", "t", "", "What's on your mind")
	cmd.Flags().IntVar(&heartRate, "heart-rate", 0, "Resting heart rate (bpm)")
	cmd.Flags().Float64Var(&sleepHours, "sleep", 0, "Hours slept last night")
	_ = cmd.MarkFlagRequired("mood")
	_ = cmd.MarkFlagRequired("stress")
	return cmd
}

func newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's check-in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			entry, ok := services.NewCheckInService(a.store, a.logger).Today(now())
			if !ok {
				fmt.Fprintln(out, ui.Muted.Render("No check-in yet today. Run `bloom checkin` to add one."))
				return nil
			}
			fmt.Fprintln(out, ui.Heading(ui.IconNote, "Today"))
			printEntry(out, entry)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent check-ins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			entries := services.NewCheckInService(a.store, a.logger).Recent(limit)
			if len(entries) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("No check-ins yet."))
				return nil
			}
			fmt.Fprintln(out, ui.Heading(ui.IconChart, "Recent check-ins"))
			for _, e := range entries {
				line := fmt.Sprintf("%s %s  mood %s  stress %s",
					e.Date, services.MoodEmoji(e.MoodScore), ui.Level(e.MoodScore, false), ui.Level(e.StressLevel, true))
				if t := strings.TrimSpace(e.Thoughts); t != "" {
					line += "  " + ui.Muted.Render(truncate(t, 40))
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 7, "How many entries to show")
	return cmd
}

func printEntry(out io.Writer, e models.MoodEntry) {
	fmt.Fprintln(out, ui.LabelValue("Date", e.Date))
	fmt.Fprintln(out, ui.LabelValue("Mood", services.MoodEmoji(e.MoodScore)+" "+ui.Level(e.MoodScore, false)))
	fmt.Fprintln(out, ui.LabelValue("Stress", ui.Level(e.StressLevel, true)))
	if e.HeartRate != nil {
		fmt.Fprintln(out, ui.LabelValue("Heart rate", fmt.Sprintf("%d bpm", *e.HeartRate)))
	}
	if e.SleepHours != nil {
		fmt.Fprintln(out, ui.LabelValue("Sleep", fmt.Sprintf("%.1f h", *e.SleepHours)))
	}
	if t := strings.TrimSpace(e.Thoughts); t != "" {
		fmt.Fprintln(out, ui.LabelValue("Thoughts", t))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"mindbloom/internal/progress"
	"mindbloom/internal/services"
	"mindbloom/internal/ui"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your avatar, streaks and badges",
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

			v := services.NewCheckInService(a.store, a.logger).Growth()
			p := v.Progress
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, ui.Heading(v.Stage.Emoji, v.Stage.Name))
			fmt.Fprintln(out, ui.Muted.Render(v.Stage.Description))
			fmt.Fprintln(out, ui.LabelValue("Level", p.AvatarLevel))
			fmt.Fprintln(out, ui.LabelValue("Next level", fmt.Sprintf("%s %d/%d",
				ui.Bar(v.NextLevelFraction, 14), p.TotalCheckIns%progress.CheckInsPerLevel, progress.CheckInsPerLevel)))
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render(ui.IconChart+" Stats"))
			fmt.Fprintln(out, ui.LabelValue("Total check-ins", p.TotalCheckIns))
			fmt.Fprintln(out, ui.LabelValue("Current streak", fmt.Sprintf("%s %d", ui.IconFire, p.CurrentStreak)))
			fmt.Fprintln(out, ui.LabelValue("Longest streak", p.LongestStreak))
			if p.LastCheckIn != nil {
				fmt.Fprintln(out, ui.LabelValue("Last check-in", *p.LastCheckIn))
			}
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render(ui.IconSparkle+" Badges"))
			for _, b := range v.Badges {
				if b.Earned {
					fmt.Fprintf(out, "- %s %s %s\n", b.Icon, ui.Gold.Render(b.Name), ui.Muted.Render(b.Description))
				} else {
					fmt.Fprintf(out, "- %s %s %s\n", ui.IconLock, ui.Muted.Render(b.Name), ui.Muted.Render(b.Description))
				}
			}
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render("🌱 Growth path"))
			for _, s := range progress.Stages {
				mark := ui.Muted.Render(fmt.Sprintf("unlocks at %d check-ins", s.UnlocksAt()))
				if s.Level <= p.AvatarLevel {
					mark = ui.Good.Render("reached")
				}
				fmt.Fprintf(out, "- %s %s %s\n", s.Emoji, s.Name, mark)
			}
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, ui.Panel.Render(v.Motivation))
			return nil
		},
	}
}

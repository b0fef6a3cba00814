package root

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mindbloom/internal/ui"
)

const Version = "0.1.0"

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bloom",
		Short:         "MindBloom: daily check-ins, self-assessments and a supportive chat",
		Long:          "MindBloom is a local-first wellness tracker. Check in once a day, grow your avatar, take a self-assessment or talk things through with Bloom.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newCheckInCmd(),
		newTodayCmd(),
		newHistoryCmd(),
		newStatusCmd(),
		newQuestionnairesCmd(),
		newAssessCmd(),
		newChatCmd(),
		newSignUpCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoAmICmd(),
		newResetPasswordCmd(),
	)
	return rootCmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		stop()
		os.Exit(1)
	}
}

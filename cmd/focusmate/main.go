package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"focusmate/internal/bootstrap"
	focusinadapter "focusmate/internal/modules/focus/adapter/in"
	focusdto "focusmate/internal/modules/focus/dto"
	"focusmate/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	tui := newTUICmd(&configPath)
	root := &cobra.Command{
		Use:           "focusmate",
		Short:         "Focus sessions with live attention feedback",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          tui.RunE,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/focusmate/config.yaml)")

	root.AddCommand(tui)
	root.AddCommand(newSessionCmd(&configPath))
	root.AddCommand(newHistoryCmd(&configPath))
	root.AddCommand(newHealthCmd(&configPath))
	root.AddCommand(newConfigCmd(&configPath))
	return root
}

func loadApp(configPath string, logOut io.Writer) (*bootstrap.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, logOut)
}

func newTUICmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the focusmate terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logFile, err := bootstrap.OpenLogFile(cfg)
			if err != nil {
				return err
			}
			defer logFile.Close()
			app, err := bootstrap.New(cfg, logFile)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app)
		},
	}
}

func newSessionCmd(configPath *string) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Focus session commands"}

	fields := map[string]*string{}
	var duration, music string
	run := &cobra.Command{
		Use:   "run --subject <subject> --study-mode <mode>",
		Short: "Run one focus session headless until it completes or is interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			input := focusinadapter.RunInput{Fields: map[string]string{"duration": duration}, Music: music}
			for key, value := range fields {
				input.Fields[key] = *value
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "session starting, press ctrl+c to end early")
			view, err := app.FocusCLI.Run(ctx, input, newConsoleHost(out))
			if err != nil {
				return err
			}
			printRun(out, view.LastRun)
			return nil
		},
	}
	run.Flags().StringVar(&duration, "duration", "25", "session length in minutes: 15|25|45|60|90")
	for _, f := range []struct{ key, flag, usage string }{
		{"subject", "subject", "subject: mathematics|science|history|language|computer-science|business|arts|other"},
		{"study_mode", "study-mode", "study mode: reading|practice|review|writing"},
		{"difficulty", "difficulty", "difficulty: easy|medium|hard"},
		{"break_preference", "break-preference", "take breaks: yes|no"},
		{"distraction_sensitivity", "distraction-sensitivity", "distraction sensitivity: low|medium|high"},
	} {
		fields[f.key] = run.Flags().String(f.flag, "", f.usage)
	}
	run.Flags().StringVar(&music, "music", "none", "music: lofi|classical|ambient|nature|whitenoise|piano|none")

	session.AddCommand(run)
	return session
}

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent focus sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			runs, err := app.FocusCLI.History(context.Background(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(out, "no sessions")
				return nil
			}
			for _, r := range runs {
				_, _ = fmt.Fprintf(out, "%s\t%s\t%-9s\t%s\tpauses=%d frames=%d\n",
					r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Outcome,
					r.EndedAt.Sub(r.StartedAt).Round(time.Second), r.Pauses, r.FramesSent)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sessions")
	return cmd
}

func newHealthCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the analysis backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.FocusCLI.Health(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "backend %s: %s %s\n", app.Config.API.BaseURL, out.Status, out.Message)
			return nil
		},
	}
}

func newConfigCmd(configPath *string) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration commands"}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	})
	return cfgCmd
}

func printRun(out io.Writer, run *focusdto.RunOutput) {
	if run == nil {
		_, _ = fmt.Fprintln(out, "session ended")
		return
	}
	_, _ = fmt.Fprintf(out, "session %s: %s after %s (pauses=%d frames=%d suggestions=%d)\n",
		run.ID, run.Outcome, run.EndedAt.Sub(run.StartedAt).Round(time.Second),
		run.Pauses, run.FramesSent, run.SuggestionsReceived)
}

// consoleHost prints alerts and new suggestions from a headless session.
type consoleHost struct {
	out io.Writer

	mu         sync.Mutex
	suggestion string
}

func newConsoleHost(out io.Writer) *consoleHost {
	return &consoleHost{out: out}
}

func (h *consoleHost) Alert(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, _ = fmt.Fprintln(h.out, "! "+message)
}

func (h *consoleHost) Back() {}

func (h *consoleHost) NavigateToNotes() {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, _ = fmt.Fprintln(h.out, "help requested, session paused for notes")
}

func (h *consoleHost) Changed(view focusdto.SessionView) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if view.Suggestion != "" && view.Suggestion != h.suggestion {
		_, _ = fmt.Fprintf(h.out, "[%s] %s (focus %d%%)\n", view.Clock, view.Suggestion, view.FocusPercent)
	}
	h.suggestion = view.Suggestion
}

package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	focusinadapter "focusmate/internal/modules/focus/adapter/in"
	focusoutadapter "focusmate/internal/modules/focus/adapter/out"
	focusdto "focusmate/internal/modules/focus/dto"
	focusservice "focusmate/internal/modules/focus/service"
	focususecase "focusmate/internal/modules/focus/usecase"
	"focusmate/internal/platform/clock"
	"focusmate/internal/platform/config"
	"focusmate/internal/platform/id"
	"focusmate/internal/platform/logging"
	"focusmate/internal/platform/schedule"
	uiapp "focusmate/internal/ui/app"
)

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	FocusCLI focusinadapter.CLIHandler
	FocusTUI focusinadapter.TUIHandler

	journal *focusoutadapter.SQLiteJournal
}

// New wires the focus module against cfg. Logs go to logOut.
func New(cfg config.Config, logOut io.Writer) (*App, error) {
	logger, err := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("new logger: %w", err)
	}

	journal, err := focusoutadapter.NewSQLiteJournal(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("new run journal: %w", err)
	}

	api := focusoutadapter.NewHTTPSessionAPI(cfg.API.BaseURL, cfg.APITimeout())
	ctrl := focusservice.NewController(focusservice.Deps{
		API:       api,
		Channel:   focusoutadapter.NewSocketIOChannel(cfg.Realtime.URL, logger),
		Camera:    focusoutadapter.NewExecCamera(cfg.Camera.Command),
		Encoder:   focusoutadapter.NewJPEGEncoder(cfg.Frames.MaxWidth, cfg.Frames.Quality, cfg.Frames.MaxBytes),
		Journal:   journal,
		Scheduler: schedule.System{},
		Clock:     clock.SystemClock{},
		IDs:       id.Prefixed{Prefix: "run-", Base: id.RandomHex{}},
		Logger:    logger,
	}, focusservice.Options{
		UserID: cfg.UserID,
		Camera: focusdto.CameraConstraints{
			Device: cfg.Camera.Device,
			Width:  cfg.Camera.Width,
			Height: cfg.Camera.Height,
		},
		FrameWarmup:   cfg.FrameWarmup(),
		FrameInterval: cfg.FrameInterval(),
		SuggestionTTL: cfg.SuggestionTTL(),
	})
	focusUC := focususecase.NewInteractor(ctrl, api, journal)

	return &App{
		Config:   cfg,
		Logger:   logger,
		FocusCLI: focusinadapter.NewCLIHandler(focusUC),
		FocusTUI: focusinadapter.NewTUIHandler(focusUC),
		journal:  journal,
	}, nil
}

func (a *App) Close() error {
	if a.journal == nil {
		return nil
	}
	return a.journal.Close()
}

// OpenLogFile opens the append-only log used while the TUI owns the terminal.
func OpenLogFile(cfg config.Config) (*os.File, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// RunTUI blocks until the program exits. A session still running on exit
// is ended.
func RunTUI(app *App) error {
	host := uiapp.NewProgramHost()
	model := uiapp.NewModel(app.FocusTUI, host)
	program := tea.NewProgram(model, tea.WithAltScreen())
	host.Attach(program)
	_, err := program.Run()
	app.FocusTUI.Unmount()
	return err
}

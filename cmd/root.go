package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pausecomplete/internal/completion"
	"github.com/oakwood-commons/pausecomplete/internal/config"
	"github.com/oakwood-commons/pausecomplete/internal/formatter"
	"github.com/oakwood-commons/pausecomplete/internal/limiter"
	"github.com/oakwood-commons/pausecomplete/internal/protocol"
	"github.com/oakwood-commons/pausecomplete/internal/replay"
	"github.com/oakwood-commons/pausecomplete/internal/ui"
	"github.com/oakwood-commons/pausecomplete/pkg/logger"
	"github.com/oakwood-commons/pausecomplete/pkg/settings"
)

var errNoInput = errors.New("an expression or --press keys are required (or use -i)")

var (
	interactive   bool
	output        string
	recordingPath string
	pauseID       string
	frameID       string
	startKeys     []string
	watch         bool
	configFile    string
	logLevel      int8
	noColor       bool
	maxRows       int
	canOverflow   bool
	matchWindow   limiter.Config

	// runCfg is the merged configuration of the current invocation.
	runCfg config.Config
)

var (
	stdinIsPiped     = func() bool { stat, _ := os.Stdin.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	openTerminalIOFn = openTerminalIO
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " [expression]",
	Short: "Complete debugger expressions against a recorded pause",
	Long: `pausecomplete proposes completions for a partially typed expression using the
variables and object properties visible at a pause of a recorded program run.

Text before the last "." is evaluated at the pause and its property names are
offered; without a "." the names bound in the frame's scopes are offered,
innermost scope first.`,
	Example: "\n  pausecomplete --recording session.yaml 'document.ti'\n" +
		"  pausecomplete --recording session.yaml --press 'window.<Down><CR>' -o json\n" +
		"  pausecomplete --recording session.yaml --pause p1 --frame f0 -i\n",
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupRun,
	RunE:              runComplete,
}

// setupRun merges configuration and flags, starts the logger and stores both
// in the command context.
func setupRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	runCfg = cfg

	run := settings.NewCliParams()
	run.MinLogLevel = cfg.Log.Level
	run.Interactive = interactive
	run.NoColor = noColor
	run.Recording = settings.RecordingSettings{Path: recordingPath, Pause: pauseID, Frame: frameID, Watch: watch}

	out, err := logDestination(run, cfg.Log)
	if err != nil {
		return err
	}
	lgr := logger.WithValues(logger.Setup(cfg.Log.Level, out),
		logger.RootCommandKey, settings.CliBinaryName,
		logger.SubCommandKey, cmd.Name(),
	)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithLogger(settings.IntoContext(ctx, run), lgr)
	cmd.SetContext(ctx)
	return nil
}

// logDestination keeps logs off the terminal while the editor owns it.
func logDestination(run *settings.Run, cfg config.LogConfig) (io.Writer, error) {
	if !run.Interactive {
		return os.Stderr, nil
	}
	if cfg.File == "" {
		return io.Discard, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func runFromContext(ctx context.Context) *settings.Run {
	if run, ok := settings.FromContext(ctx); ok {
		return run
	}
	return settings.NewCliParams()
}

func runComplete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	run := runFromContext(ctx)
	base := logger.FromContext(ctx)

	format, err := formatter.ParseFormat(output)
	if err != nil {
		return err
	}
	if err := matchWindow.Validate(); err != nil {
		return err
	}
	expr := ""
	if len(args) > 0 {
		expr = args[0]
	}
	if !run.Interactive && expr == "" && len(startKeys) == 0 {
		return errNoInput
	}

	backend, pc, err := openRecording(run, runCfg, *base)
	if err != nil {
		return err
	}
	lgr := logger.WithValues(base, logger.RecordingKey, run.Recording.Path,
		logger.PauseKey, string(pc.PauseID), logger.FrameKey, string(pc.FrameID))

	m := ui.NewModel(ctx, newSource(backend, runCfg, *lgr), ui.Options{
		Contexts:   pauseContexts(backend, pc),
		Expression: expr,
		MaxRows:    runCfg.Completion.MaxVisibleRows,
		PopupWidth: runCfg.Completion.PopupWidth,
		Theme:      ui.ThemeFromConfig(runCfg.UI.Colors),
		NoColor:    run.NoColor,
		Logger:     *lgr,
		Describe:   describer(backend),
	})

	if run.Interactive {
		m, err = runInteractive(ctx, m, run, *lgr)
		if err != nil {
			return err
		}
		if !m.Accepted {
			return nil
		}
	} else {
		ui.ApplyStartupKeys(m, startKeys)
		m.Settle()
	}

	report := buildReport(ctx, m, backend)
	if matchWindow.IsActive() {
		report.Matches = limiter.Apply(matchWindow, report.Matches)
	}
	out, err := formatter.Render(report, format)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func openRecording(run *settings.Run, cfg config.Config, lgr logr.Logger) (*replay.Backend, protocol.PauseContext, error) {
	rs := run.Recording
	if rs.Path == "" {
		return nil, protocol.PauseContext{}, errors.New("--recording is required")
	}
	rec, err := replay.Load(rs.Path)
	if err != nil {
		return nil, protocol.PauseContext{}, err
	}
	backend, err := newBackend(rec, cfg, lgr)
	if err != nil {
		return nil, protocol.PauseContext{}, err
	}
	pause := string(backend.DefaultContext().PauseID)
	if run.HasPause() {
		pause = rs.Pause
	}
	pc, err := backend.Context(pause, rs.Frame)
	if err != nil {
		return nil, protocol.PauseContext{}, err
	}
	return backend, pc, nil
}

func newBackend(rec *replay.Recording, cfg config.Config, lgr logr.Logger) (*replay.Backend, error) {
	return replay.NewBackend(rec,
		replay.WithPreviewLimit(cfg.Recording.PreviewLimit),
		replay.WithLogger(lgr),
	)
}

func newSource(backend protocol.Backend, cfg config.Config, lgr logr.Logger) completion.CandidateSource {
	return completion.NewBackendSource(protocol.NewCache(backend),
		completion.WithCanOverflow(cfg.Completion.PreviewCanOverflow),
		completion.WithSourceLogger(lgr),
	)
}

// pauseContexts lists every pause/frame pair of the recording, starting at
// current and keeping recording order.
func pauseContexts(backend *replay.Backend, current protocol.PauseContext) []protocol.PauseContext {
	var all []protocol.PauseContext
	start := 0
	for _, p := range backend.Pauses() {
		for _, f := range p.Frames {
			pc := protocol.PauseContext{PauseID: protocol.PauseID(p.ID), FrameID: protocol.FrameID(f.ID)}
			if pc == current {
				start = len(all)
			}
			all = append(all, pc)
		}
	}
	if len(all) == 0 {
		return []protocol.PauseContext{current}
	}
	ordered := make([]protocol.PauseContext, 0, len(all))
	ordered = append(ordered, all[start:]...)
	return append(ordered, all[:start]...)
}

func describer(backend *replay.Backend) func(protocol.PauseContext) string {
	functions := make(map[protocol.PauseContext]string)
	for _, p := range backend.Pauses() {
		for _, f := range p.Frames {
			functions[protocol.PauseContext{PauseID: protocol.PauseID(p.ID), FrameID: protocol.FrameID(f.ID)}] = f.Function
		}
	}
	return func(pc protocol.PauseContext) string {
		label := fmt.Sprintf("pause %s · frame %s", pc.PauseID, pc.FrameID)
		if fn := functions[pc]; fn != "" {
			label += " (" + fn + ")"
		}
		return label
	}
}

func runInteractive(ctx context.Context, m *ui.Model, run *settings.Run, lgr logr.Logger) (*ui.Model, error) {
	opts, cleanup := getProgramOptions()
	defer cleanup()

	var watchFn func(send func(tea.Msg))
	if run.Recording.Watch {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		watchFn = func(send func(tea.Msg)) {
			err := replay.Watch(watchCtx, lgr, run.Recording.Path, time.Duration(runCfg.Recording.WatchDebounce), func(rec *replay.Recording, err error) {
				if err != nil {
					send(ui.ReloadMsg{Err: err})
					return
				}
				backend, err := newBackend(rec, runCfg, lgr)
				if err != nil {
					send(ui.ReloadMsg{Err: err})
					return
				}
				send(ui.ReloadMsg{Source: newSource(backend, runCfg, lgr)})
			})
			if err != nil {
				lgr.Error(err, "failed to watch recording")
			}
		}
	}
	return ui.RunModel(m, 0, 0, startKeys, watchFn, opts...)
}

// getProgramOptions points the program at the real terminal when stdin is piped.
func getProgramOptions() ([]tea.ProgramOption, func()) {
	cleanup := func() {}
	if !stdinIsPiped() {
		return nil, cleanup
	}
	ttyIn, ttyOut, err := openTerminalIOFn()
	if err != nil {
		return nil, cleanup
	}
	cleanup = func() {
		_ = ttyIn.Close()
		if ttyOut != nil && ttyOut != ttyIn {
			_ = ttyOut.Close()
		}
	}
	opts := []tea.ProgramOption{tea.WithInput(ttyIn)}
	if ttyOut != nil {
		opts = append(opts, tea.WithOutput(ttyOut))
	}
	return opts, cleanup
}

func openTerminalIO() (*os.File, *os.File, error) {
	in, out := terminalDeviceNames(runtime.GOOS)
	input, err := os.OpenFile(in, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}
	if out == "" || out == in {
		return input, input, nil
	}
	output, err := os.OpenFile(out, os.O_RDWR, 0)
	if err != nil {
		return input, nil, err
	}
	return input, output, nil
}

func terminalDeviceNames(goos string) (input string, output string) {
	if goos == "windows" {
		return "CONIN$", "CONOUT$"
	}
	return "/dev/tty", "/dev/tty"
}

func init() { //nolint:gochecknoinits
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&recordingPath, "recording", "", "path to a recording file (YAML, JSON or TOML)")
	pf.StringVarP(&output, "output", "o", "list", "output format: list|json|yaml|toml|tree")
	pf.StringVar(&configFile, "config-file", "", "path to a config file (default $XDG_CONFIG_HOME/pausecomplete/config.yaml)")
	pf.Int8Var(&logLevel, "log-level", 0, "zap log level: 0 info, -1 debug")
	pf.BoolVar(&noColor, "no-color", false, "disable color output")

	rootCmd.Flags().StringVar(&pauseID, "pause", "", "pause to complete against (default: first pause)")
	rootCmd.Flags().StringVar(&frameID, "frame", "", "frame of the pause (default: first frame)")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "open the interactive editor")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "reload the recording when it changes (interactive only)")
	rootCmd.Flags().StringArrayVar(&startKeys, "press", nil, "simulate keys. Use <Key> for special keys (<Down>, <Up>, <CR>, <Esc>, <BS>, <C-n>); literal text types normally")
	rootCmd.Flags().IntVar(&maxRows, "rows", 0, "maximum visible popup rows (default from config)")
	rootCmd.Flags().IntVar(&matchWindow.Limit, "limit", 0, "list at most N matches (0 = all)")
	rootCmd.Flags().IntVar(&matchWindow.Offset, "offset", 0, "skip the first N matches")
	rootCmd.Flags().IntVar(&matchWindow.Tail, "tail", 0, "list only the last N matches")
	rootCmd.Flags().BoolVar(&canOverflow, "can-overflow", false, "request bounded property previews (default from config)")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd, pausesCmd, configCmd)
}

// ExecuteContext runs the root command; ctx bounds lookups and the recording watcher.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sherine-k/actuator/pkg/chart"
	"github.com/sherine-k/actuator/pkg/command"
	"github.com/sherine-k/actuator/pkg/config"
	"github.com/sherine-k/actuator/pkg/logging"
	"github.com/sherine-k/actuator/pkg/scheduler"
	"github.com/sherine-k/actuator/pkg/simulation"
)

var (
	configFile       string
	logLevel         string
	inputFile        string
	maxTicks         uint64
	showReport       bool
	showTimeline     bool
	timelineLimit    int
	showEventSummary bool
)

var (
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "actuator",
	Short: "Single-slot actuation scheduler",
	Long: `A CLI tool that replays a log of timed commands and fires a single
pending actuation when its time comes.

Each input line is "<time>\t<signal>". A non-negative signal schedules a firing
that many time units after <time>, replacing anything pending; a negative signal
cancels. Time advances one unit per tick, gaps in the input are filled, and after
the input ends ticking continues until every scheduled firing has been reached.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runReplay,
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read commands from a file instead of standard input")
	rootCmd.Flags().Uint64Var(&maxTicks, "max-ticks", 0, "Stop after this many ticks (0 = unbounded)")
	rootCmd.Flags().BoolVarP(&showReport, "report", "r", false, "Print a timeline chart and warnings after the replay")
	rootCmd.Flags().BoolVarP(&showTimeline, "timeline", "t", false, "Include a detailed timeline of events in the report")
	rootCmd.Flags().IntVarP(&timelineLimit, "timeline-limit", "l", 50, "Limit number of timeline events to display")
	rootCmd.Flags().BoolVarP(&showEventSummary, "summary", "s", true, "Include an event summary in the report")
}

// setup loads configuration and logging for every command
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	logger = logging.SetupWithWriter(cfg.Environment, cfg.LogLevel, cmd.ErrOrStderr()).
		With().
		Str("run_id", uuid.NewString()).
		Str("command", cmd.Name()).
		Logger()
	return nil
}

// applyReplayFlags lets explicit flags win over the configuration file
func applyReplayFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("max-ticks") {
		cfg.Replay.MaxTicks = maxTicks
	}
	if flags.Changed("report") {
		cfg.Report.Enabled = showReport
	}
	if flags.Changed("timeline") {
		cfg.Report.Timeline = showTimeline
	}
	if flags.Changed("timeline-limit") {
		cfg.Report.TimelineLimit = timelineLimit
	}
	if flags.Changed("summary") {
		cfg.Report.Summary = showEventSummary
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	applyReplayFlags(cmd)

	var in io.Reader = cmd.InOrStdin()
	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	out := cmd.OutOrStdout()
	sink := scheduler.NewWriterSink(out)

	// Create and run simulator
	sim := simulation.NewSimulator(command.NewLineSource(in),
		simulation.WithLogger(logger),
		simulation.WithSinks(sink),
		simulation.WithMaxTicks(cfg.Replay.MaxTicks),
		simulation.WithHistory(cfg.Report.Enabled),
	)
	runErr := sim.Run(cmd.Context())
	if err := sink.Err(); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("replay failed: %w", runErr)
	}

	if !cfg.Report.Enabled {
		return nil
	}

	// Generate and display report
	chartGen := chart.NewGenerator()

	fmt.Fprintln(out, chartGen.GenerateTimelineChart(sim.GetTimePoints()))

	if cfg.Report.Summary {
		fmt.Fprintln(out, chartGen.GenerateEventSummary(sim.GetEvents()))
	}

	fmt.Fprintln(out, chartGen.GenerateWarnings(sim.GetWarnings()))

	if cfg.Report.Timeline {
		fmt.Fprintln(out, chartGen.GenerateDetailedTimeline(sim.GetEvents(), cfg.Report.TimelineLimit))
	}

	return nil
}

package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ticksched/internal/balance"
	"ticksched/internal/errors"
	"ticksched/internal/job"
	"ticksched/internal/logging"
	"ticksched/internal/sched"
	"ticksched/internal/trace"
)

type runOptions struct {
	rounds   int
	tick     time.Duration
	period   int64
	buffer   int
	traceCSV string
	quiet    bool
	balanced bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sensor demo",
		Long: `Runs two tasks on one wheel. The collector stores a reading and yields,
over and over. The processor busy-waits for a number of clock ticks, drains
the readings, and after the last round cancels the collector.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log := logging.NewLoggerWithWriter(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())

			return runSensorDemo(cmd, cfg, log, opts)
		},
	}

	cmd.Flags().IntVar(&opts.rounds, "rounds", 5, "Processing rounds before the collector is cancelled")
	cmd.Flags().DurationVar(&opts.tick, "tick", 5*time.Millisecond, "Clock tick interval")
	cmd.Flags().Int64Var(&opts.period, "period", 10, "Ticks the processor waits between rounds")
	cmd.Flags().IntVar(&opts.buffer, "buffer", 64, "Readings kept before the oldest is overwritten")
	cmd.Flags().StringVar(&opts.traceCSV, "trace-csv", "", "Write every status event to this CSV file")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Do not print status events")
	cmd.Flags().BoolVar(&opts.balanced, "balanced", false, "Share run time 1:2 between collector and processor")

	return cmd
}

func runSensorDemo(cmd *cobra.Command, cfg sched.Config, log logrus.FieldLogger, opts runOptions) (err error) {
	out := cmd.OutOrStdout()

	clock := job.NewTickClock()
	clock.Start(opts.tick)
	defer clock.Stop()

	var observers []sched.Observer

	if !opts.quiet {
		observers = append(observers, trace.NewPrinter(out, clock).Observe)
	}

	if opts.traceCSV != "" {
		rec, cerr := trace.CreateCSV(opts.traceCSV)
		if cerr != nil {
			return cerr
		}

		defer func() {
			if cerr := rec.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		observers = append(observers, rec.Observe)
	}

	wheel := sched.New(cfg, sched.WithLogger(log), sched.WithObserver(trace.Tee(observers...)))
	defer func() {
		if cerr := wheel.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	h := wheel.Handle()
	readings := job.NewReadings(opts.buffer)

	sample := 0
	collector := job.Collect(readings, func() int {
		sample++
		return sample % 100
	})

	var group *balance.Group
	if opts.balanced {
		group = balance.NewGroup(balance.SystemClock{})
	}

	collectorID, err := spawn(h, group, 1, sched.Named("collector"), collector)
	if err != nil {
		return err
	}

	processor := job.Process(clock, opts.period, opts.rounds, readings, collectorID)

	processorID, err := spawn(h, group, 2, sched.Named("processor"), processor)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := wheel.Run(ctx); err != nil {
		return err
	}

	outcome, err := h.Outcome(processorID)
	if err != nil {
		return err
	}

	report, ok := outcome.Value.(job.Report)
	if !ok {
		return errors.Errorf("processor ended %s without a report", outcome.Reason)
	}

	printSummary(out, report, h.Stats(), clock.Count())

	return nil
}

func spawn(h sched.Handle, group *balance.Group, slots uint16, params sched.SpawnParams, comp sched.Computation) (sched.TaskID, error) {
	if group != nil {
		wrapped, err := group.Wrap(slots, comp)
		if err != nil {
			return 0, err
		}

		comp = wrapped
	}

	return h.Spawn(params, comp)
}

func printSummary(out io.Writer, report job.Report, stats sched.Stats, ticks int64) {
	fmt.Fprintf(out, "\nrounds=%d samples=%d average=%.2f ticks=%d\n", report.Rounds, report.Samples, report.Average(), ticks)
	fmt.Fprintf(out, "passes=%d polls=%d finished=%d cancelled=%d faulted=%d\n",
		stats.Passes, stats.Polls, stats.Finished, stats.Cancelled, stats.Faulted)
}

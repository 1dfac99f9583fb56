package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/amoebot/internal/config"
	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/scenario"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
	"github.com/OpenTraceLab/amoebot/pkg/trace"
)

var (
	// Global flags
	verbose    bool
	configPath string
	traceDB    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "amoebot",
	Short: "Reconfigurable circuit subroutines for amoebot structures",
	Long: `Run circuit subroutines of the amoebot model on particle structures
described by scenario files and print what every particle computed.

Examples:
  amoebot check structure.amb                    # Validate a scenario file
  amoebot pasc structure.amb                     # Rank every chain with PASC
  amoebot arith --op MULT structure.amb          # Multiply chain operands
  amoebot leader --kappa 6 structure.amb         # Elect a leader among candidates
  amoebot spf structure.amb                      # Shortest paths to the source
  amoebot shape --file flake.json snowflake      # Search a snowflake in a shape`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			c.Verbose = true
		}
		if traceDB != "" {
			c.TraceDB = traceDB
		}
		cfg = c
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&traceDB, "trace", "", "record round statistics in this SQLite file")
}

// simOptions returns the system options of the loaded configuration. With
// --verbose every round is logged.
func simOptions() []sim.Option {
	opts := cfg.SimOptions()
	if cfg.Verbose {
		opts = append(opts, sim.WithLogger(log.New(os.Stdout, "  ", 0)))
	}
	return opts
}

func loadScenario(path string) (*scenario.Scenario, error) {
	if cfg.Verbose {
		fmt.Printf("Loading scenario: %s\n", path)
	}
	sc, err := scenario.Load(path, simOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	if len(sc.System.Particles()) == 0 {
		return nil, fmt.Errorf("scenario %q has no particles", sc.Name)
	}
	return sc, nil
}

// startTrace attaches a trace recorder to s when a trace database is
// configured. The returned function stores the run summary and closes the
// database.
func startTrace(s *sim.System, name, algorithm string) (func() error, error) {
	if cfg.TraceDB == "" {
		return func() error { return nil }, nil
	}
	db, err := trace.Open(cfg.TraceDB)
	if err != nil {
		return nil, err
	}
	run := fmt.Sprintf("%s/%s/%s", name, algorithm, time.Now().UTC().Format(time.RFC3339Nano))
	rec, err := db.Start(run, algorithm, len(s.Particles()))
	if err != nil {
		db.Close()
		return nil, err
	}
	s.AddObserver(rec)
	if cfg.Verbose {
		fmt.Printf("Tracing run %s to %s\n", run, cfg.TraceDB)
	}
	return func() error {
		defer db.Close()
		return rec.Finish()
	}, nil
}

// runTraced drives one subroutine per particle and records the run.
func runTraced(s *sim.System, name, algorithm string, subs []sim.Subroutine) (int, error) {
	finish, err := startTrace(s, name, algorithm)
	if err != nil {
		return 0, err
	}
	rounds, err := s.RunSubroutines(cfg.MaxRounds, subs)
	if ferr := finish(); err == nil && ferr != nil {
		err = fmt.Errorf("failed to store trace: %w", ferr)
	}
	if err != nil {
		return rounds, fmt.Errorf("%s failed: %w", algorithm, err)
	}
	return rounds, nil
}

// idle stands in for particles that take no part in a subroutine.
type idle struct{}

func (idle) ActivateReceive()                     {}
func (idle) SetupPC(pc *amoebot.PinConfiguration) {}
func (idle) ActivateSend()                        {}
func (idle) IsFinished() bool                     { return true }

func idleSubroutines(s *sim.System) []sim.Subroutine {
	subs := make([]sim.Subroutine, len(s.Particles()))
	for i := range subs {
		subs[i] = idle{}
	}
	return subs
}

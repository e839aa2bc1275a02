// Command headless runs a simulation without a window and prints a summary of
// what happened. Useful for tuning prefabs and policy scripts.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/milk9111/busline/logging"
	"github.com/milk9111/busline/prefabs"
	"github.com/milk9111/busline/sim"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("headless", flag.ContinueOnError)
	fs.SetOutput(out)
	simName := fs.String("sim", "sim", "simulation file in prefabs/ (basename, .yaml optional)")
	levelName := fs.String("level", "", "override the sim file's level")
	ticks := fs.Int("ticks", 0, "ticks to run; 0 runs one simulated minute")
	seed := fs.Uint64("seed", 0, "override the sim file's seed; 0 keeps it")
	tracePath := fs.String("trace", "", "write every event as JSON lines to this file")
	logLevel := fs.String("log", "warn", "log level (trace, debug, info, warn, error)")
	events := fs.Bool("events", false, "print the full event log")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := prefabs.LoadSimSpec(*simName)
	if err != nil {
		return err
	}
	if *levelName != "" {
		cfg.Level = *levelName
	}
	if *ticks <= 0 {
		*ticks = cfg.TickRate * 60
	}

	opts := []sim.Option{sim.WithLogger(logging.NewLogger(*logLevel, os.Stderr))}
	if *seed != 0 {
		opts = append(opts, sim.WithSeed(*seed))
	}
	if *tracePath != "" {
		tw, err := logging.NewTraceFile(*tracePath)
		if err != nil {
			return err
		}
		opts = append(opts, sim.WithTrace(tw))
	}

	s, err := sim.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := s.Run(ctx, *ticks); err != nil {
		fmt.Fprintf(out, "interrupted at tick %d\n", s.Tick())
	}

	if *events {
		fmt.Fprint(out, s.Log().Format())
	}
	report(out, s)
	return nil
}

func report(out io.Writer, s *sim.Simulation) {
	l := s.Log()
	fmt.Fprintf(out, "ticks        %d\n", s.Tick())
	fmt.Fprintf(out, "spawned      %d\n", l.CountCategory("vehicle", "spawned"))
	fmt.Fprintf(out, "alive        %d\n", len(s.Vehicles()))
	fmt.Fprintf(out, "arrivals     %d\n", l.CountCategory("navigation", "arrived"))
	fmt.Fprintf(out, "reversals    %d\n", l.CountCategory("navigation", "reversed"))
	fmt.Fprintf(out, "branches     %d\n", l.CountCategory("navigation", "branched"))
	fmt.Fprintf(out, "halts        %d\n", l.CountCategory("navigation", "halted"))
	fmt.Fprintf(out, "faults       %d\n", l.CountCategory("navigation", "fault"))
	fmt.Fprintf(out, "checkpoints  %d (score %+.0f)\n",
		l.CountCategory("checkpoint", "reached"), l.Sum("checkpoint", "reached"))

	choices := map[string]int{}
	for _, e := range l.Filter("intersection", "choice") {
		// "auto left at i1 -> s0"
		fields := strings.Fields(e.Value)
		if len(fields) >= 2 {
			choices[fields[0]+" "+fields[1]]++
		}
	}
	keys := make([]string, 0, len(choices))
	for k := range choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %-18s %d\n", k, choices[k])
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	solvers "github.com/illessar/solvers-V8"
)

func getFlags() []cli.Flag {
	def := solvers.DefaultConfig()
	return []cli.Flag{
		cli.StringFlag{
			Name:  "input-file, in",
			Usage: "Input cnf file for solving (required)",
		},
		cli.IntFlag{
			Name:  "workers, n",
			Usage: "Number of parallel workers",
			Value: 4,
		},
		cli.IntFlag{
			Name:  "verbosity, verb",
			Usage: "Verbosity level (0, 1 or 2)",
		},
		cli.IntFlag{
			Name:  "cpu-time-limit",
			Usage: "Limit on solving time allowed in seconds",
			Value: -1,
		},
		cli.Float64Flag{
			Name:  "K",
			Usage: "The constant used to force restart",
			Value: def.K,
		},
		cli.Float64Flag{
			Name:  "R",
			Usage: "The constant used to block restart",
			Value: def.R,
		},
		cli.IntFlag{
			Name:  "first-reduce-db",
			Usage: "The number of conflicts before the first reduce DB",
			Value: def.FirstReduceDB,
		},
		cli.IntFlag{
			Name:  "inc-reduce-db",
			Usage: "Increment for reduce DB",
			Value: def.IncReduceDB,
		},
		cli.IntFlag{
			Name:  "psm-cutoff",
			Usage: "PSM at or below which a learnt clause is frozen",
			Value: def.PSMCutoff,
		},
		cli.IntFlag{
			Name:  "ccmin-mode",
			Usage: "Conflict clause minimization (0=none, 1=basic, 2=deep)",
			Value: def.CcminMode,
		},
		cli.IntFlag{
			Name:  "phase-saving",
			Usage: "Level of phase saving (0=none, 1=limited, 2=full)",
			Value: def.PhaseSaving,
		},
		cli.Float64Flag{
			Name:  "rnd-freq",
			Usage: "The frequency with which the decision heuristic tries to choose a random variable",
			Value: def.RandomVarFreq,
		},
		cli.Float64Flag{
			Name:  "rnd-seed",
			Usage: "Seed of the random variable selection",
			Value: def.RandomSeed,
		},
		cli.Float64Flag{
			Name:  "gc-frac",
			Usage: "The fraction of wasted memory allowed before a garbage collection is triggered",
			Value: def.GarbageFrac,
		},
	}
}

func configFromContext(c *cli.Context) solvers.Config {
	conf := solvers.DefaultConfig()
	conf.K = c.Float64("K")
	conf.R = c.Float64("R")
	conf.FirstReduceDB = c.Int("first-reduce-db")
	conf.IncReduceDB = c.Int("inc-reduce-db")
	conf.PSMCutoff = c.Int("psm-cutoff")
	conf.CcminMode = c.Int("ccmin-mode")
	conf.PhaseSaving = c.Int("phase-saving")
	conf.RandomVarFreq = c.Float64("rnd-freq")
	conf.RandomSeed = c.Float64("rnd-seed")
	conf.GarbageFrac = c.Float64("gc-frac")
	conf.Verbosity = c.Int("verbosity")
	return conf
}

func printStatistics(fleet *solvers.Fleet, elapsed time.Duration) {
	for i, w := range fleet.Workers() {
		st := w.Statistics()
		logrus.WithFields(logrus.Fields{
			"worker":       i,
			"restarts":     st.RestartCount,
			"conflicts":    st.ConflictCount,
			"decisions":    st.DecisionCount,
			"propagations": st.PropagationCount,
			"reduce_db":    st.ReduceDBCount,
			"removed":      st.RemovedClauseCount,
			"frozen":       st.FrozenCount,
			"thawed":       st.ThawedCount,
			"exported":     st.ExportedClauseCount,
			"imported":     st.ImportedClauseCount,
		}).Info("worker statistics")
	}
	logrus.WithField("cpu_time", elapsed.Seconds()).Info("done")
}

func printModel(model []solvers.LitBool) {
	var sb strings.Builder
	sb.WriteString("v ")
	for i, v := range model {
		if v == solvers.LitBoolTrue {
			fmt.Fprintf(&sb, "%d ", i+1)
		} else {
			fmt.Fprintf(&sb, "%d ", -(i + 1))
		}
	}
	sb.WriteString("0")
	fmt.Println(sb.String())
}

func run(c *cli.Context) error {
	if c.String("input-file") == "" {
		fmt.Println("input-file is required.")
		cli.ShowAppHelpAndExit(c, 2)
	}
	verbosity := c.Int("verbosity")
	switch {
	case verbosity >= 2:
		logrus.SetLevel(logrus.DebugLevel)
	case verbosity == 1:
		logrus.SetLevel(logrus.InfoLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}

	fp, err := os.Open(c.String("input-file"))
	if err != nil {
		return err
	}
	defer fp.Close()

	conf := configFromContext(c)
	fleet := solvers.NewFleet(c.Int("workers"), conf)
	if err := solvers.ParseDimacs(fp, fleet); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"variables": fleet.NumVars(),
		"workers":   c.Int("workers"),
	}).Info("problem loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if limit := c.Int("cpu-time-limit"); limit > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(limit)*time.Second)
		defer cancel()
	}
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logrus.Warn("interrupted")
		cancel()
	}()

	start := time.Now()
	status := fleet.Solve(ctx)
	elapsed := time.Since(start)

	if verbosity >= 1 {
		printStatistics(fleet, elapsed)
	}
	switch status {
	case solvers.LitBoolTrue:
		fmt.Println("s SATISFIABLE")
		printModel(fleet.Model())
	case solvers.LitBoolFalse:
		fmt.Println("s UNSATISFIABLE")
	default:
		fmt.Println("s INDETERMINATE")
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "solvers"
	app.Usage = "A parallel CDCL SAT solver with learnt-clause freezing"
	app.Flags = getFlags()
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

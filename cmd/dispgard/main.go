// Command dispgard finds a guard placement with maximum pairwise dispersion
// for a polygonal instance, using one of the pluggable feasibility backends.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/optlabs/dispgard/backends"
	"github.com/optlabs/dispgard/disp"
	"github.com/optlabs/dispgard/geom"
	"github.com/optlabs/dispgard/instance"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	flagBackend    string
	flagParams     string
	flagResolution float64
	flagTimeLimit  time.Duration
	flagVerbose    bool
	flagStats      bool
)

// resultJSON is the machine-readable solve report printed on stdout.
type resultJSON struct {
	Status     string      `json:"status"`
	Guards     []int       `json:"guards"`
	Objective  float64     `json:"objective"`
	UpperBound float64     `json:"upper_bound"`
	Stats      *disp.Stats `json:"stats,omitempty"`
}

var rootCmd = &cobra.Command{
	Use:   "dispgard <instance.json>",
	Short: "maximize the minimum pairwise distance of a covering guard set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args[0])
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&flagBackend, "backend", "b", backends.Default,
		fmt.Sprintf("feasibility backend, one of %v", backends.Names()))
	rootCmd.Flags().StringVarP(&flagParams, "params", "p", "", "YAML parameter file")
	rootCmd.Flags().Float64VarP(&flagResolution, "resolution", "r", 0,
		"grid spacing of the coverage sample universe (0 picks one from the instance size)")
	rootCmd.Flags().DurationVarP(&flagTimeLimit, "time-limit", "t", 0,
		"wall-clock budget, overrides the parameter file")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log search progress")
	rootCmd.Flags().BoolVar(&flagStats, "stats", false, "include run statistics in the report")
}

func run(ctx context.Context, path string) error {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if !flagVerbose {
		log.SetLevel(logrus.WarnLevel)
	}

	inst, err := instance.LoadFile(path)
	if err != nil {
		return err
	}
	params := disp.DefaultParams()
	if flagParams != "" {
		if params, err = disp.LoadParams(flagParams); err != nil {
			return err
		}
	}
	if flagTimeLimit > 0 {
		params.TimeLimit = flagTimeLimit
	}
	factory, err := backends.Select(flagBackend)
	if err != nil {
		return err
	}
	oracle, err := geom.NewOracle(inst, flagResolution)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := disp.Solve(ctx, inst, oracle, factory, params, log)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"status":    result.Status,
		"objective": result.Objective,
		"elapsed":   time.Since(start).Round(time.Millisecond),
	}).Info("finished")

	report := resultJSON{
		Status:     result.Status.String(),
		Guards:     result.Solution,
		Objective:  result.Objective,
		UpperBound: result.UpperBound,
	}
	if flagStats {
		report.Stats = &result.Stats
	}
	out, err := json.MarshalIndent(&report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

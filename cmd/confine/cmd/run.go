package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-confine/confine"
	"github.com/go-confine/confine/runner"
)

var runFlags = struct {
	wallTime     string
	cpuTime      string
	memory       runner.Size
	grace        time.Duration
	noRaise      bool
	keepChildren bool
	jsonOut      bool
	verbose      bool
}{}

var runCmd = &cobra.Command{
	Use:   "run [flags] TASK [ARG]",
	Short: "Run a built-in task under the given limits",
	Long: `Run a built-in task under the given limits.

Durations accept bare seconds ("1.5") or Go notation ("90s", "2m");
sizes accept b/k/m/g suffixes ("256m").`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.wallTime, "wall-time", "", "wall clock limit")
	f.StringVar(&runFlags.cpuTime, "cpu-time", "", "cpu time limit")
	f.Var(&runFlags.memory, "memory", "address space limit")
	f.DurationVar(&runFlags.grace, "grace", 0, "grace period between stop request and kill")
	f.BoolVar(&runFlags.noRaise, "no-raise", false, "report non-success outcomes in the run record instead of as errors")
	f.BoolVar(&runFlags.keepChildren, "keep-children", false, "skip the post-run sweep of leftover child processes")
	f.BoolVar(&runFlags.jsonOut, "json", false, "print the run record as JSON")
	f.BoolVarP(&runFlags.verbose, "verbose", "v", false, "log engine diagnostics")
	rootCmd.AddCommand(runCmd)
}

func runRun(c *cobra.Command, args []string) error {
	var limits runner.Limits
	var err error
	if runFlags.wallTime != "" {
		if limits.WallTime, err = runner.ParseTime(runFlags.wallTime); err != nil {
			return fmt.Errorf("invalid wall-time: %w", err)
		}
	}
	if runFlags.cpuTime != "" {
		if limits.CPUTime, err = runner.ParseTime(runFlags.cpuTime); err != nil {
			return fmt.Errorf("invalid cpu-time: %w", err)
		}
	}
	limits.Memory = runFlags.memory
	limits.GracePeriod = runFlags.grace

	var taskArg []byte
	if len(args) > 1 {
		taskArg = []byte(args[1])
	}

	opts := []confine.Option{
		confine.WithRaises(!runFlags.noRaise),
		confine.WithTerminateChildProcesses(!runFlags.keepChildren),
	}
	if runFlags.verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		opts = append(opts, confine.WithLogger(log))
	}

	out, err := confine.Run(c.Context(), args[0], taskArg, limits, opts...)
	if err != nil {
		return err
	}
	return printOutcome(c, out)
}

func printOutcome(c *cobra.Command, out *confine.Outcome) error {
	if runFlags.jsonOut {
		rec := map[string]interface{}{
			"status":       out.Status.String(),
			"exit_status":  out.ExitStatus,
			"cpu_time":     out.Time.String(),
			"max_rss":      out.Memory.String(),
			"setup_time":   out.SetUpTime.String(),
			"running_time": out.RunningTime.String(),
		}
		if out.Status == runner.StatusSuccess {
			rec["result"] = string(out.Payload)
		} else if out.Err != nil {
			rec["error"] = out.Err.Error()
		}
		enc := json.NewEncoder(c.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	if v := out.Value(); v != confine.EMPTY {
		c.Printf("result: %s\n", out.Payload)
	} else {
		c.Printf("status: %s", out.Status)
		if out.Err != nil {
			c.Printf(" (%v)", out.Err)
		}
		c.Println()
	}
	c.Printf("cpu: %v  rss: %v  setup: %v  run: %v\n",
		out.Time, out.Memory, out.SetUpTime, out.RunningTime)
	return nil
}

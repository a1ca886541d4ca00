package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/go-confine/confine"
	"github.com/go-confine/confine/runner"
)

var supportsCmd = &cobra.Command{
	Use:   "supports",
	Short: "Show which limits this platform can enforce",
	Args:  cobra.NoArgs,
	Run: func(c *cobra.Command, _ []string) {
		c.Printf("platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		for _, cap := range []runner.Capability{
			runner.CapabilityMemory,
			runner.CapabilityCPUTime,
			runner.CapabilityWallTime,
		} {
			state := "enforced"
			if !confine.Supports(cap) {
				state = "not enforced"
			}
			c.Printf("%-10s %s\n", cap, state)
		}
	},
}

func init() {
	rootCmd.AddCommand(supportsCmd)
}

package cmd

import (
	"os"

	sim "github.com/amar-abane/qrepeater-sim/sim"
)

// writeReport writes metrics' rendered report to path.
func writeReport(path string, metrics *sim.NetworkMetrics) error {
	return os.WriteFile(path, []byte(metrics.Report()), 0644)
}

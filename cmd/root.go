// cmd/root.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/amar-abane/qrepeater-sim/sim"
)

var (
	configPath string
	seed       int64
	logLevel   string
	outPath    string
)

var rootCmd = &cobra.Command{
	Use:   "qrepeatersim",
	Short: "Discrete-event simulator for quantum repeater networks",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a network scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := sim.LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("loading scenario: %v", err)
		}
		if seed != 0 {
			cfg.Seed = seed
		}

		logrus.Infof("Starting simulation: %d nodes, %d qchannels, duration=%.3fs, seed=%d",
			len(cfg.Nodes), len(cfg.QChannels), cfg.Duration, cfg.Seed)

		s, net, _, err := sim.BuildNetwork(cfg)
		if err != nil {
			logrus.Fatalf("building network: %v", err)
		}
		s.Run()

		metrics := sim.CollectMetrics(net)
		metrics.Print()
		if outPath != "" {
			if err := writeReport(outPath, metrics); err != nil {
				logrus.Errorf("writing report to %s: %v", outPath, err)
			}
		}
		logrus.Info("Simulation complete.")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	if env := os.Getenv("QSIM_LOG_LEVEL"); env != "" {
		logLevel = env
	} else {
		logLevel = "info"
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "Scenario YAML file (required)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Override the scenario's RNG seed (0 = use scenario value)")
	runCmd.Flags().StringVar(&logLevel, "log-level", logLevel, "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&outPath, "out", "", "Write the final metrics report to this file")
	runCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(runCmd)
}

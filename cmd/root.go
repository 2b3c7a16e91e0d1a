/*
Copyright © 2025 Jack0Chan

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	pyuppaal "github.com/Jack0Chan/PyUPPAAL"
	"github.com/Jack0Chan/PyUPPAAL/internal/config"
	"github.com/Jack0Chan/PyUPPAAL/verifyta"
)

var (
	configPath   string
	verifytaPath string
	tracerPath   string
	logLevel     string
	workDir      string
	keepFiles    bool
	metricsFile  string
	parallelism  int
)

// app holds what the commands of one invocation share.
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	registry *prometheus.Registry
	client   *verifyta.Client
}

var current *app

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pyuppaal",
	Short: "Verify UPPAAL models and analyse their counter-examples",
	Long: `pyuppaal drives the UPPAAL verifier (verifyta) to check timed-automata models,
decode counter-example traces, enumerate distinct counter-example patterns and
analyse fault identification, diagnosability and tolerance.

verifyta and the trace decoder are located through the configuration file, the
--verifyta/--tracer flags or the VERIFYTA_PATH/UPPAAL_TRACER_PATH variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current == nil || current.cfg.MetricsFile == "" {
			return nil
		}
		return prometheus.WriteToTextfile(current.cfg.MetricsFile, current.registry)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.StringVar(&verifytaPath, "verifyta", "", "path of the verifyta binary")
	flags.StringVar(&tracerPath, "tracer", "", "path of the trace decoder")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&workDir, "work-dir", "", "directory for intermediate models and traces")
	flags.BoolVar(&keepFiles, "keep", false, "keep intermediate models and traces")
	flags.StringVar(&metricsFile, "metrics-file", "", "write verifier metrics to this file in the Prometheus text format")
	flags.IntVar(&parallelism, "parallelism", 0, "maximum number of concurrent verifications")
}

// setup loads the configuration, applies the flags set on the command line
// and builds the verifier client.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("verifyta") {
		cfg.VerifytaPath = verifytaPath
	}
	if flags.Changed("tracer") {
		cfg.TracerPath = tracerPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("work-dir") {
		cfg.WorkDir = workDir
	}
	if flags.Changed("keep") {
		cfg.KeepFiles = keepFiles
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = metricsFile
	}
	if flags.Changed("parallelism") {
		cfg.Parallelism = parallelism
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(cfg.Level())

	registry := prometheus.NewRegistry()
	metrics, err := verifyta.NewMetrics(registry)
	if err != nil {
		return nil, err
	}
	client := verifyta.New(cfg.VerifytaPath,
		verifyta.WithTracer(cfg.TracerPath),
		verifyta.WithLogger(logger),
		verifyta.WithMetrics(metrics),
	)
	return &app{cfg: cfg, logger: logger, registry: registry, client: client}, nil
}

func (a *app) load(path string) (*pyuppaal.Model, error) {
	return pyuppaal.Load(path,
		pyuppaal.WithClient(a.client),
		pyuppaal.WithLogger(a.logger),
		pyuppaal.WithWorkDir(a.cfg.WorkDir),
		pyuppaal.WithKeepFiles(a.cfg.KeepFiles),
		pyuppaal.WithVerifyOptions(a.cfg.VerifyArgs()...),
		pyuppaal.WithParallelism(a.cfg.Parallelism),
	)
}

// list splits a comma separated flag value.
func list(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command depmap builds, analyzes, and scores infrastructure dependency
// graphs from collector candidate documents.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/pkg/logging"
)

// Exit codes. Threshold commands use ExitThresholdExceeded so CI
// pipelines can gate on analysis results.
const (
	ExitSuccess           = 0
	ExitThresholdExceeded = 1
	ExitError             = 2
)

var (
	appConfig Config
	logger    *logging.Logger

	shutdownTelemetry func(context.Context) error

	// Persistent flags
	flagConfigPath string
	flagLogLevel   string
	flagLogDir     string
	flagTelemetry  bool
)

var rootCmd = &cobra.Command{
	Use:   "depmap",
	Short: "Infrastructure dependency graph engine",
	Long: `depmap assembles candidate documents produced by IaC collectors
(Terraform, Terragrunt, Kubernetes, Helm) into dependency graphs,
scores every relationship from its supporting evidence, and answers
impact and cycle questions about the result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra skips PersistentPostRun when a command errors.
		shutdownRuntime(context.Background())
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}

// shutdownRuntime flushes telemetry and closes the logger. Idempotent:
// the PostRun hook, error exits, and threshold exits all funnel here.
func shutdownRuntime(ctx context.Context) {
	if shutdownTelemetry != nil {
		if err := shutdownTelemetry(ctx); err != nil && logger != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
		shutdownTelemetry = nil
	}
	if logger != nil {
		logger.Close()
	}
}

// exitThresholdExceeded terminates with the CI gating exit code after
// flushing, so spans and buffered log records from the command survive.
func exitThresholdExceeded(ctx context.Context) {
	shutdownRuntime(ctx)
	os.Exit(ExitThresholdExceeded)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "",
		"Path to config file (default: ./depmap.yaml, ~/.depmap/depmap.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "",
		"Directory for JSON log files (disabled when empty)")
	rootCmd.PersistentFlags().BoolVar(&flagTelemetry, "telemetry", false,
		"Emit OpenTelemetry traces and metrics to stdout")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(flagConfigPath)
		if err != nil {
			return err
		}
		appConfig = cfg

		// Flags override file and environment values.
		if flagLogLevel != "" {
			appConfig.LogLevel = flagLogLevel
		}
		if flagLogDir != "" {
			appConfig.LogDir = flagLogDir
		}
		if flagTelemetry {
			appConfig.Telemetry = true
		}

		logger = logging.New(logging.Config{
			Level:   logging.ParseLevel(appConfig.LogLevel),
			LogDir:  appConfig.LogDir,
			Service: "depmap",
		})

		if appConfig.Telemetry {
			shutdown, err := setupTelemetry(cmd.Context())
			if err != nil {
				return fmt.Errorf("initializing telemetry: %w", err)
			}
			shutdownTelemetry = shutdown
		}
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		shutdownRuntime(cmd.Context())
	}
}

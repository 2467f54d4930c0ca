package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"seasontrack/internal/preflight"
)

type statusCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Detail  string `json:"detail"`
	Passed  bool   `json:"passed"`
	Warning bool   `json:"warning,omitempty"`
}

type statusReport struct {
	ConfigPath   string        `json:"config_path"`
	ConfigExists bool          `json:"config_exists"`
	Backend      string        `json:"backend"`
	StoragePath  string        `json:"storage_path,omitempty"`
	StorageKey   string        `json:"storage_key"`
	Checks       []statusCheck `json:"checks"`
	Records      int           `json:"records"`
	Watched      int           `json:"watched"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, storage health and watch-list totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			snap := preflight.InspectStorage(cmd.Context(), cfg)

			report := statusReport{
				ConfigPath:   ctx.configPath,
				ConfigExists: ctx.configSeen,
				Backend:      cfg.Storage.Backend,
				StoragePath:  cfg.Storage.Path,
				StorageKey:   cfg.Storage.Key,
				Records:      snap.Records,
				Watched:      snap.Watched,
			}
			failed := false
			for _, r := range results {
				level := levelForResult(r)
				failed = failed || level == levelError
				report.Checks = append(report.Checks, statusCheck{
					Name:    r.Name,
					Status:  strings.ToLower(level.tag()),
					Detail:  r.Detail,
					Passed:  r.Passed,
					Warning: r.Warning,
				})
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else if err := renderStatus(cmd, report, results); err != nil {
				return err
			}
			if failed {
				return fmt.Errorf("status: one or more checks failed")
			}
			return nil
		},
	}
}

func renderStatus(cmd *cobra.Command, report statusReport, results []preflight.Result) error {
	sw := newStatusWriter(cmd.OutOrStdout())

	sw.section("Configuration")
	if report.ConfigExists {
		sw.line("Config", levelInfo, report.ConfigPath)
	} else {
		sw.line("Config", levelWarn, report.ConfigPath+" (not found; using defaults)")
	}
	sw.line("Backend", levelInfo, report.Backend)
	sw.line("Storage key", levelInfo, report.StorageKey)

	sw.section("Checks")
	for _, r := range results {
		sw.check(r)
	}

	sw.section("Watch list")
	sw.line("Series", levelInfo, fmt.Sprintf("%d", report.Records))
	sw.line("Watched", levelInfo, fmt.Sprintf("%d", report.Watched))

	return sw.flush()
}

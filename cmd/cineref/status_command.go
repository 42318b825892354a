package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"cineref/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon reachability, credentials, and tool availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Daemon: %s\n\n", daemonState(ctx))

			checkRows := make([][]string, 0, 4)
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				checkRows = append(checkRows, []string{result.Name, yesNo(result.Passed), result.Detail})
			}
			fmt.Println(renderTable([]string{"Check", "Passed", "Detail"}, checkRows, nil))

			depRows := make([][]string, 0, 4)
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				detail := dep.Detail
				if detail == "" {
					detail = dep.Description
				}
				depRows = append(depRows, []string{dep.Name, yesNo(dep.Available), detail})
			}
			fmt.Println(renderTable([]string{"Tool", "Available", "Detail"}, depRows, nil))
			return nil
		},
	}
}

// daemonState probes the local API endpoint. Any response, authorized or
// not, means a daemon is listening.
func daemonState(ctx *commandContext) string {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return "unknown"
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/api/status", cfg.Paths.APIBind))
	if err != nil {
		return "not running"
	}
	resp.Body.Close()
	return "running on " + cfg.Paths.APIBind
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cineref/internal/config"
	"cineref/internal/daemonrun"
	"cineref/internal/identify"
	"cineref/internal/services"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var year int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "identify <title>",
		Short: "Run the identification pipeline against a bare title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(cfg *config.Config, svcs *daemonrun.Services) error {
				result, err := svcs.Pipeline.Identify(cmd.Context(), identify.Request{Title: args[0], Year: year})
				if err != nil {
					if errors.Is(err, services.ErrNoIdentification) {
						fmt.Println("No identification: every stage came up empty.")
						return nil
					}
					return err
				}
				if jsonOutput {
					return printJSON(result)
				}
				rows := [][]string{
					{"Title", result.Title},
					{"Year", formatYear(result.Year)},
					{"Identified by", string(result.Source)},
				}
				if result.IMDbID != "" {
					rows = append(rows, []string{"IMDb", result.IMDbID})
				}
				if result.TMDBID != 0 {
					rows = append(rows, []string{"TMDB", fmt.Sprintf("%d", result.TMDBID)})
				}
				fmt.Println(renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Constrain the search to a release year")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the identification as JSON")
	return cmd
}

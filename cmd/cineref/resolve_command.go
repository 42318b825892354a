package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cineref/internal/config"
	"cineref/internal/daemonrun"
	"cineref/internal/resolve"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var uploadPath string
	var hintTitle string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "resolve [reference]",
		Short: "Resolve a shared reference into a playback URL and film identity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) > 0 {
				raw = args[0]
			}
			if raw == "" && uploadPath == "" {
				return fmt.Errorf("provide a reference argument or --upload")
			}

			return ctx.withServices(func(cfg *config.Config, services *daemonrun.Services) error {
				resolution, err := services.Resolver.Resolve(cmd.Context(), resolve.Request{
					Reference:  raw,
					UploadPath: uploadPath,
					HintTitle:  hintTitle,
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(resolution)
				}
				printResolution(resolution)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&uploadPath, "upload", "", "Treat a local file as the content reference")
	cmd.Flags().StringVar(&hintTitle, "title", "", "Known title to seed identification, e.g. \"Nightfall (2019)\"")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the resolution as JSON")
	return cmd
}

func printResolution(resolution *resolve.Resolution) {
	rows := [][]string{
		{"Kind", displayKind(resolution.Reference.Kind)},
		{"Playback URL", resolution.PlaybackURL},
	}
	if resolution.MediaHandle != "" {
		rows = append(rows, []string{"Media handle", resolution.MediaHandle})
	}
	if id := resolution.Identification; id != nil {
		rows = append(rows,
			[]string{"Title", id.Title},
			[]string{"Year", formatYear(id.Year)},
			[]string{"Identified by", string(id.Source)},
		)
		if id.IMDbID != "" {
			rows = append(rows, []string{"IMDb", id.IMDbID})
		}
		if id.TMDBID != 0 {
			rows = append(rows, []string{"TMDB", fmt.Sprintf("%d", id.TMDBID)})
		}
	} else {
		rows = append(rows, []string{"Identified", "no (" + resolution.IdentifyNote + ")"})
	}
	fmt.Println(renderTable([]string{"Field", "Value"}, rows, nil))
}

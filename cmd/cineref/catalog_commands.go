package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cineref/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the local film catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCatalogAddCommand(ctx))
	cmd.AddCommand(newCatalogListCommand(ctx))
	return cmd
}

// withCatalog opens just the catalog store; catalog commands have no need
// for platform credentials.
func withCatalog(ctx *commandContext, fn func(*catalog.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg.Paths.CatalogDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newCatalogAddCommand(ctx *commandContext) *cobra.Command {
	var year int
	var imdbID string
	var description string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a film to the local catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(ctx, func(store *catalog.Store) error {
				film, err := store.Add(cmd.Context(), catalog.Film{
					Title:       args[0],
					Year:        year,
					IMDbID:      imdbID,
					Description: description,
				})
				if err != nil {
					return err
				}
				fmt.Printf("Added %q (%s) as catalog entry %d\n", film.Title, formatYear(film.Year), film.ID)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Release year")
	cmd.Flags().StringVar(&imdbID, "imdb", "", "IMDb identifier (tt...)")
	cmd.Flags().StringVar(&description, "description", "", "Short description")
	return cmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalogued films",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(ctx, func(store *catalog.Store) error {
				films, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(films) == 0 {
					fmt.Println("Catalog is empty.")
					return nil
				}
				rows := make([][]string, 0, len(films))
				for _, film := range films {
					rows = append(rows, []string{
						fmt.Sprintf("%d", film.ID),
						film.Title,
						formatYear(film.Year),
						film.IMDbID,
					})
				}
				fmt.Println(renderTable(
					[]string{"ID", "Title", "Year", "IMDb"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

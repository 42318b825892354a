package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cineref/internal/config"
	"cineref/internal/daemonrun"
)

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	var handle string

	cmd := &cobra.Command{
		Use:   "refresh [reference]",
		Short: "Force re-resolution of a playback URL, bypassing the cache",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if handle == "" && len(args) == 0 {
				return fmt.Errorf("provide a reference argument or --handle")
			}
			return ctx.withServices(func(cfg *config.Config, services *daemonrun.Services) error {
				var url string
				var err error
				if handle != "" {
					url, err = services.Resolver.RefreshHandle(cmd.Context(), handle)
				} else {
					url, err = services.Resolver.RefreshURL(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				fmt.Println(url)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&handle, "handle", "", "Refresh by the media handle from a previous resolution")
	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(e *env) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Build cache operations",
	}

	infoCmd := &cobra.Command{
		Use:   "info <script>",
		Short: "Show information about the cache directory of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}

			items, err := svc.Info(args[0])
			if err != nil {
				return err
			}

			maxNameLen := 0
			for _, item := range items {
				if len(item.Name) > maxNameLen {
					maxNameLen = len(item.Name)
				}
			}

			lineFmt := fmt.Sprintf("%%-%ds %%s\n", maxNameLen+1)
			for _, item := range items {
				fmt.Fprintf(e.stdout, lineFmt, item.Name+":", item.Value)
			}
			return nil
		},
	}

	cleanCmd := &cobra.Command{
		Use:     "clean <script>",
		Aliases: []string{"clear"},
		Short:   "Remove the cache directory and the Docker image of a script",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}

			return svc.Clean(cmd.Context(), args[0])
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <name> <script>",
		Short: `Show a single item from "cache info", e.g. cache_path`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}

			value, err := svc.Get(args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintln(e.stdout, value)
			return nil
		},
	}

	cacheCmd.AddCommand(infoCmd, cleanCmd, getCmd)
	return cacheCmd
}

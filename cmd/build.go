package cmd

import (
	"github.com/spf13/cobra"

	"github.com/scriptisto/scriptisto/pkg/buildsys"
)

func newBuildCmd(e *env) *cobra.Command {
	var mode buildsys.Mode

	buildCmd := &cobra.Command{
		Use:   "build <script>",
		Short: "Build a script without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}

			_, cacheDir, err := svc.Perform(cmd.Context(), mode, args[0], true)
			if err != nil {
				return err
			}

			printSubtask(e.stderr, e.color, "Built "+args[0]+" in "+cacheDir)
			return nil
		},
	}
	buildCmd.Flags().VarP(&mode, "build-mode", "b", `build mode; if unset only builds if necessary, "source" always rebuilds, "full" also reruns build_once_cmd and rebuilds the Docker image`)

	return buildCmd
}

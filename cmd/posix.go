package cmd

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// expandArgs resolves glob patterns on Windows where the shell interpreter passes them through
// unchanged. Elsewhere the arguments are already expanded.
func expandArgs(args []string, allowEmpty bool) ([]string, error) {
	if runtime.GOOS != "windows" {
		return args, nil
	}

	items := make([]string, 0, len(args))
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to resolve pattern %s", arg)
		}

		if matches == nil {
			if allowEmpty {
				continue
			}
			return nil, eris.Errorf("pattern %s produced no matches", arg)
		}

		items = append(items, matches...)
	}

	return items, nil
}

func newPosixCmd() *cobra.Command {
	posixCmd := &cobra.Command{
		Use:    "posix",
		Short:  "Portable mv, rm and mkdir for build commands",
		Hidden: true,
	}

	mvCmd := &cobra.Command{
		Use:   "mv <source>... <dest>",
		Short: "Move files or directories",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := filepath.Clean(args[len(args)-1])
			sources, err := expandArgs(args[:len(args)-1], false)
			if err != nil {
				return err
			}

			info, err := os.Stat(dest)
			if err != nil && !eris.Is(err, os.ErrNotExist) {
				return eris.Wrapf(err, "failed to check destination %s", dest)
			}
			destIsDir := err == nil && info.IsDir()

			if !destIsDir {
				if len(sources) > 1 {
					return eris.Errorf("can't move multiple items to %s because it is not a directory", dest)
				}

				err = os.Rename(sources[0], dest)
				if err != nil {
					return eris.Wrapf(err, "failed to move %s to %s", sources[0], dest)
				}
				return nil
			}

			for _, item := range sources {
				itemDest := filepath.Join(dest, filepath.Base(item))
				err = os.Rename(item, itemDest)
				if err != nil {
					return eris.Wrapf(err, "failed to move %s to %s", item, itemDest)
				}
			}

			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Remove files or directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			recursive, err := cmd.Flags().GetBool("recursive")
			if err != nil {
				return err
			}

			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}

			items, err := expandArgs(args, force)
			if err != nil {
				return err
			}

			for _, item := range items {
				info, err := os.Lstat(item)
				if err != nil {
					if force && eris.Is(err, os.ErrNotExist) {
						continue
					}
					return eris.Wrapf(err, "could not stat %s", item)
				}

				if info.IsDir() && !recursive {
					return eris.Errorf("%s is a directory but -r wasn't passed", item)
				}

				err = os.RemoveAll(item)
				if err != nil {
					return eris.Wrapf(err, "could not delete %s", item)
				}
			}

			return nil
		},
	}
	rmCmd.Flags().BoolP("recursive", "r", false, "recursively delete directories")
	rmCmd.Flags().BoolP("force", "f", false, "ignore missing files")

	mkdirCmd := &cobra.Command{
		Use:   "mkdir <path>...",
		Short: "Create directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			makeParents, err := cmd.Flags().GetBool("parents")
			if err != nil {
				return err
			}

			for _, item := range args {
				if makeParents {
					err = os.MkdirAll(item, 0o755)
				} else {
					err = os.Mkdir(item, 0o755)
				}

				if err != nil {
					return eris.Wrapf(err, "failed to create %s", item)
				}
			}

			return nil
		},
	}
	mkdirCmd.Flags().BoolP("parents", "p", false, "create parent directories as needed")

	posixCmd.AddCommand(mvCmd, rmCmd, mkdirCmd)
	return posixCmd
}

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/scriptisto/scriptisto/pkg/templates"
)

func listTemplates(out io.Writer, store *templates.Store) error {
	list, err := store.List()
	if err != nil {
		return err
	}

	maxNameLen := 0
	for _, item := range list {
		if len(item.Name) > maxNameLen {
			maxNameLen = len(item.Name)
		}
	}

	lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxNameLen+1)
	for _, item := range list {
		fmt.Fprintf(out, lineFmt, item.Name, item.Source())
	}
	return nil
}

func newNewCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "new [template]",
		Short: "Print a starter script for the given template",
		Long: `Prints a starter script in the language of your choice, e.g.
"scriptisto new go | tee hello-go". Lists the available templates if no name is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newTemplateStore()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				fmt.Fprintln(e.stdout, "Available templates:")
				return listTemplates(e.stdout, store)
			}

			content, err := store.Get(args[0])
			if err != nil {
				return err
			}

			_, err = io.WriteString(e.stdout, content)
			return err
		},
	}
}

func newTemplateCmd(e *env) *cobra.Command {
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Manage custom script templates",
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a template from a file; the extension is stripped for the template name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newTemplateStore()
			if err != nil {
				return err
			}

			name, err := store.Import(args[0])
			if err != nil {
				return err
			}

			printSubtask(e.stderr, e.color, fmt.Sprintf("Imported template %s", name))
			return nil
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit <template>",
		Short: "Open a template in $VISUAL or $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newTemplateStore()
			if err != nil {
				return err
			}

			return store.Edit(cmd.Context(), args[0])
		},
	}

	rmCmd := &cobra.Command{
		Use:     "rm <template>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a custom template or reset it to the built-in contents",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newTemplateStore()
			if err != nil {
				return err
			}

			restored, err := store.Remove(args[0])
			if err != nil {
				return err
			}

			if restored {
				printSubtask(e.stderr, e.color, fmt.Sprintf("Template %s was reset to the built-in version", args[0]))
			} else {
				printSubtask(e.stderr, e.color, fmt.Sprintf("Removed template %s", args[0]))
			}
			return nil
		},
	}

	lsCmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newTemplateStore()
			if err != nil {
				return err
			}

			printTask(e.stdout, e.color, "Templates")
			return listTemplates(e.stdout, store)
		},
	}

	templateCmd.AddCommand(importCmd, editCmd, rmCmd, lsCmd)
	return templateCmd
}

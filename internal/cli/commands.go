package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

func (r *runner) printYAML(v any) error {
	enc := yaml.NewEncoder(r.outW)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func newSpecCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "spec TYPE",
		Short: "Print the spec of a node type as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := r.app.DescribeSpec(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return r.printYAML(view)
		},
	}
}

func newCreateCommand(r *runner) *cobra.Command {
	var rawParams, owner, stateOut string
	cmd := &cobra.Command{
		Use:   "create TYPE",
		Short: "Instantiate a node type and report on the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out io.Writer
			if stateOut != "" {
				f, err := os.Create(stateOut)
				if err != nil {
					return fmt.Errorf("creating state file: %w", err)
				}
				defer f.Close()
				out = f
			}
			res, err := r.app.CreateRegion(cmd.Context(), args[0], rawParams, owner, out)
			if err != nil {
				return err
			}
			return r.printYAML(res)
		},
	}
	cmd.Flags().StringVar(&rawParams, "params", "", "Parameters as a YAML mapping, e.g. '{count: 3}'.")
	cmd.Flags().StringVar(&owner, "owner", "regionctl", "Name of the owning region.")
	cmd.Flags().StringVar(&stateOut, "state-out", "", "Write the region's state bundle to this file.")
	return cmd
}

func newRestoreCommand(r *runner) *cobra.Command {
	var owner, stateIn string
	cmd := &cobra.Command{
		Use:   "restore TYPE",
		Short: "Rebuild a node type from a saved state bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(stateIn)
			if err != nil {
				return fmt.Errorf("opening state file: %w", err)
			}
			defer f.Close()
			res, err := r.app.RestoreRegion(cmd.Context(), args[0], f, owner)
			if err != nil {
				return err
			}
			return r.printYAML(res)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "regionctl", "Name of the owning region.")
	cmd.Flags().StringVar(&stateIn, "state", "", "State bundle written by 'create --state-out'.")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func newTypesCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the registered native node types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range r.app.NativeTypes(cmd.Context()) {
				fmt.Fprintln(r.outW, name)
			}
			return nil
		},
	}
}

func newNamespacesCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "namespaces",
		Short: "List the foreign search path in search order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, ns := range r.app.Namespaces() {
				fmt.Fprintln(r.outW, ns)
			}
			return nil
		},
	}
}

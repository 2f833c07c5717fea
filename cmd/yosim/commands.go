package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"text/template"

	"github.com/db47h/yosim/bench"
	"github.com/db47h/yosim/gen"
	"github.com/db47h/yosim/internal/config"
	"github.com/db47h/yosim/toolchain"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newGenCmd() *cobra.Command {
	var root, tmplPath, out string
	cmd := &cobra.Command{
		Use:   "gen SOURCE",
		Short: "Generate the simulation glue for a synthesized design",
		Long: `Gen parses the C++ source emitted by the synthesis tool and prints the
simulation glue for the module hierarchy rooted at --root.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tmpl *template.Template
			if tmplPath != "" {
				b, err := os.ReadFile(tmplPath)
				if err != nil {
					return errors.WithStack(err)
				}
				if tmpl, err = gen.ParseTemplate(filepath.Base(tmplPath), string(b)); err != nil {
					return err
				}
			}
			src, err := os.Open(args[0])
			if err != nil {
				return errors.WithStack(err)
			}
			defer src.Close()
			glue, err := gen.Generate(src, tmpl, root)
			if err != nil {
				return errors.Wrap(err, args[0])
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(glue)
				return err
			}
			return errors.WithStack(os.WriteFile(out, glue, 0644))
		},
	}
	f := cmd.Flags()
	f.StringVar(&root, "root", gen.DefaultRoot, "type name of the root module")
	f.StringVarP(&tmplPath, "template", "t", "", "glue template, default built-in")
	f.StringVarP(&out, "output", "o", "", "output file, default standard output")
	return cmd
}

func newPortsCmd() *cobra.Command {
	var top string
	cmd := &cobra.Command{
		Use:   "ports DESIGN",
		Short: "List the ports of the top module of an RTLIL design",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.WithStack(err)
			}
			defer f.Close()
			ports, err := toolchain.Ports(f, top)
			if err != nil {
				return errors.Wrap(err, args[0])
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range ports {
				dir := "input"
				if p.Output {
					dir = "output"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", p.Name, dir, p.Width)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&top, "top", bench.DefaultTop, "name of the top module")
	return cmd
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build CONFIG",
		Short: "Build the simulation library described by a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx, args[0])
			if err != nil {
				return err
			}
			dir := cfg.WorkDir
			if dir == "" {
				dir = "."
			}
			so, err := bench.Build(ctx, cfg, dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), so)
			return nil
		},
	}
}

func newSignalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signals CONFIG",
		Short: "Build and load a design, then list its signals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx, args[0])
			if err != nil {
				return err
			}
			b, err := bench.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range b.Dut().Signals(true) {
				fmt.Fprintf(w, "%d\t%s\t%d\n", s.ID(), s.Name(), s.Width())
			}
			return w.Flush()
		},
	}
}

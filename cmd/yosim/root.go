package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/db47h/yosim/internal/ctxlog"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel  string
	logFormat string
	profile   string
	stop      interface{ Stop() }
}

func newRootCmd() *cobra.Command {
	var o rootOptions
	cmd := &cobra.Command{
		Use:           "yosim",
		Short:         "Testbench kernel for compiled hardware designs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(o.logLevel, o.logFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
			return o.startProfile()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if o.stop != nil {
				o.stop.Stop()
			}
		},
	}
	f := cmd.PersistentFlags()
	f.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	f.StringVar(&o.logFormat, "log-format", "text", "log format: text or json")
	f.StringVar(&o.profile, "profile", "", "write a cpu or mem profile to the current directory")

	cmd.AddCommand(
		newGenCmd(),
		newPortsCmd(),
		newBuildCmd(),
		newSignalsCmd(),
	)
	return cmd
}

func (o *rootOptions) startProfile() error {
	var mode func(*profile.Profile)
	switch o.profile {
	case "":
		return nil
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	default:
		return errors.Errorf("invalid profile %q, need cpu or mem", o.profile)
	}
	o.stop = profile.Start(mode, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet)
	return nil
}

func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: l}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, errors.Errorf("invalid log format %q", format)
}

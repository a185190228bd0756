package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"safekill.dev/internal/config"
	"safekill.dev/internal/logs"
	"safekill.dev/internal/pipeline"
	"safekill.dev/internal/process"
	"safekill.dev/internal/target"
)

// rootOptions holds the flags of the root command
type rootOptions struct {
	name       string
	port       int
	portSet    bool
	list       bool
	signal     string
	dryRun     bool
	configPath string
	json       bool
	verbose    bool
}

func (a *app) newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "safe-kill [PID]",
		Short: "Terminate processes only when it is safe to do so",
		Long: `safe-kill terminates processes on behalf of automated agents.

A process may only be signaled when it descends from the current session
root, matches the allowlist, or (with --port) owns an allowed port.
Denylisted processes and safe-kill's own parent are never signaled.

Set SAFE_KILL_ROOT_PID to choose the session root explicitly.`,
		Example: `  safe-kill 12345
  safe-kill -N node --dry-run
  safe-kill -p 3000 -s KILL
  safe-kill --list`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.portSet = cmd.Flags().Changed("port")
			return a.runRoot(cmd.Context(), opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.name, "name", "N", "", "Target processes whose name matches (substring or glob)")
	flags.IntVarP(&opts.port, "port", "p", 0, "Target the process listening on this port")
	flags.BoolVarP(&opts.list, "list", "l", false, "List processes in the current session and whether they can be killed")
	flags.StringVarP(&opts.signal, "signal", "s", "TERM", "Signal to send (name or number)")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "Show what would be killed without sending signals")
	flags.BoolVar(&opts.json, "json", false, "Print the result as JSON")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default: <config dir>/safe-kill/config.toml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log policy decisions to stderr")

	cmd.AddCommand(a.newInitCmd(opts))
	return cmd
}

// targetSpec turns the positional pid and target flags into exactly one spec
func (o *rootOptions) targetSpec(args []string) (target.Spec, error) {
	var modes []string
	var spec target.Spec

	if len(args) == 1 {
		pid, err := strconv.Atoi(args[0])
		if err != nil || pid <= 0 {
			return target.Spec{}, newUsageError("invalid PID %q", args[0])
		}
		modes = append(modes, "PID")
		spec = target.PID(pid)
	}
	if o.name != "" {
		modes = append(modes, "--name")
		spec = target.Name(o.name)
	}
	if o.portSet {
		modes = append(modes, "--port")
		spec = target.Port(o.port)
	}
	if o.list {
		modes = append(modes, "--list")
	}

	switch {
	case len(modes) == 0:
		return target.Spec{}, &exitError{code: ExitNoTarget, err: errors.New("specify a PID, --name, --port or --list")}
	case len(modes) > 1:
		return target.Spec{}, newUsageError("%s cannot be used together", strings.Join(modes, ", "))
	}

	if o.list {
		return target.Spec{}, nil
	}
	if err := spec.Validate(); err != nil {
		return target.Spec{}, newUsageError("%v", err)
	}
	return spec, nil
}

func (a *app) runRoot(ctx context.Context, opts *rootOptions, args []string) error {
	spec, err := opts.targetSpec(args)
	if err != nil {
		return err
	}

	// Signal errors are reported before any config or process is read
	sig := process.DefaultSignal()
	if !opts.list {
		sig, err = process.ParseSignal(opts.signal)
		if err != nil {
			return err
		}
	}

	cfg, path, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	log := logs.New(logs.Options{Verbose: opts.verbose, Writer: a.stderr})
	defer log.Sync() //nolint:errcheck
	if path == "" {
		log.Debugw("no config file found, using defaults", "denylist", cfg.Denylist)
	} else {
		log.Debugw("loaded config", "path", path)
	}

	runner := a.newRunner(cfg, log)
	out := a.newPrinter(opts.json)

	if opts.list {
		listing, err := runner.List(ctx)
		if err != nil {
			return err
		}
		return out.listing(listing)
	}

	report, err := runner.Kill(ctx, pipeline.Request{Spec: spec, Signal: sig, DryRun: opts.dryRun})
	if err != nil {
		return err
	}
	if err := out.report(report); err != nil {
		return err
	}

	if code := exitCodeForStatus(report.Status); code != ExitSuccess {
		return &exitError{code: code}
	}
	return nil
}

func (a *app) newRunner(cfg *config.Config, log *zap.SugaredLogger) *pipeline.Runner {
	return &pipeline.Runner{
		Capture:   a.capture,
		Sender:    a.sender,
		Config:    cfg,
		Logger:    log,
		Getenv:    a.getenv,
		SelfPID:   a.selfPID,
		ParentPID: a.parentPID,
	}
}

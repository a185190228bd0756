package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"safekill.dev/internal/config"
	"safekill.dev/internal/dirs"
)

func (a *app) newInitCmd(root *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		Long: `Create a commented config file with the default denylist and an example
[allowed_ports] table. The file is written to --config when given, otherwise
to the user config directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(root.configPath, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file without asking")
	return cmd
}

func (a *app) runInit(path string, force bool) error {
	if path == "" {
		var err error
		path, err = dirs.ConfigPath()
		if err != nil {
			return &exitError{code: ExitGeneralError, err: err}
		}
	}

	err := config.WriteDefault(path, force)
	if errors.Is(err, config.ErrConfigExists) {
		ok, promptErr := a.confirmOverwrite(path)
		if promptErr != nil {
			return &exitError{code: ExitGeneralError, err: promptErr}
		}
		if !ok {
			return &exitError{code: ExitGeneralError, err: fmt.Errorf("%w (use --force to overwrite)", err)}
		}
		err = config.WriteDefault(path, true)
	}
	if err != nil {
		return &exitError{code: ExitGeneralError, err: err}
	}

	fmt.Fprintf(a.stdout, "Created: %s\n", path)
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, "Hint: Edit the config file to customize allowed ports and process lists.")
	fmt.Fprintln(a.stdout, "      Then use `safe-kill --port <PORT>` to kill processes by port.")
	return nil
}

// confirmOverwrite asks on stdin. Without a terminal the answer is no.
func (a *app) confirmOverwrite(path string) (bool, error) {
	if !a.interactive {
		return false, nil
	}

	fmt.Fprintf(a.stderr, "Config file already exists at %s. Overwrite? [y/N]: ", path)
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

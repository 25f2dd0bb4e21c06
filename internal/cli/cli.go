package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vk/regionfactory/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// runner carries the state shared by the command tree during one execution.
type runner struct {
	outW       io.Writer
	logW       io.Writer
	opts       []app.Option
	configFile string
	app        *app.App
}

var configKeys = []string{
	app.KeyLogLevel,
	app.KeyLogFormat,
	app.KeyNamespaces,
	app.KeyBridgeRoot,
	app.KeyBridgeLibrary,
	app.KeyPython,
}

// command builds the regionctl command tree around r.
func (r *runner) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "regionctl",
		Short: "Inspect and instantiate region implementations",
		Long: `regionctl resolves node type names to region implementations, either
compiled-in native regions or "py." regions hosted by the embedded Python
runtime, and reports their specs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.setup,
	}
	root.SetOut(r.outW)
	root.SetErr(r.outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	flags := root.PersistentFlags()
	flags.StringVar(&r.configFile, "config", "", "Path to a YAML config file.")
	flags.String(app.KeyLogLevel, "info", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	flags.String(app.KeyLogFormat, "text", "Log output format: 'text' or 'json'.")
	flags.StringSlice(app.KeyNamespaces, nil, "Namespace appended to the foreign search path (repeatable).")
	flags.String(app.KeyBridgeRoot, "", "Foreign runtime installation root; skips discovery.")
	flags.String(app.KeyBridgeLibrary, "", "Companion library file name override.")
	flags.String(app.KeyPython, "python", "Python interpreter used to discover the installation root.")

	root.AddCommand(
		newSpecCommand(r),
		newCreateCommand(r),
		newRestoreCommand(r),
		newTypesCommand(r),
		newNamespacesCommand(r),
	)
	return root
}

// Execute runs the regionctl command tree with args. Command output goes to
// outW and logs to logW; opts are passed to the App the command builds.
func Execute(ctx context.Context, outW, logW io.Writer, args []string, opts ...app.Option) error {
	r := &runner{outW: outW, logW: logW, opts: opts}
	root := r.command()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	r.close(ctx)
	return err
}

func (r *runner) setup(cmd *cobra.Command, _ []string) error {
	v, err := app.NewViper(r.configFile)
	if err != nil {
		return usageError(err)
	}
	flags := cmd.Root().PersistentFlags()
	for _, key := range configKeys {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return fmt.Errorf("binding flag %s: %w", key, err)
		}
	}
	cfg, err := app.ConfigFromViper(v)
	if err != nil {
		return usageError(err)
	}
	r.app = app.NewApp(r.logW, cfg, r.opts...)
	return nil
}

func (r *runner) close(ctx context.Context) {
	if r.app != nil {
		r.app.Close(ctx)
	}
}

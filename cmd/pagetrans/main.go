// Command pagetrans translates HTML pages and serves the translation engine.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cybersafe-india/pagetrans"
	"github.com/cybersafe-india/pagetrans/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the streams and global flags shared by every subcommand.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	configPath     string
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := newRootCmd(&app{stdin: stdin, stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   pagetrans.Name,
		Short: pagetrans.Description,
		Long: `pagetrans translates the visible text of HTML pages in place.

Text nodes are extracted, resolved from a per-language cache, sent to the
configured provider (Azure Translator, OpenAI or static gettext catalogs) and
written back into the same nodes. Without provider credentials pages are
returned unchanged.

Configuration is read from --config (YAML or TOML) and the environment
(AZURE_TRANSLATOR_KEY, AZURE_TRANSLATOR_ENDPOINT, AZURE_TRANSLATOR_REGION,
OPENAI_API_KEY, PAGETRANS_REDIS_URL, PAGETRANS_ADDR, PAGETRANS_LOG_LEVEL).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (.yaml, .yml or .toml)")

	root.AddCommand(
		newTranslateCmd(a),
		newServeCmd(a),
		newLanguagesCmd(a),
		newDetectCmd(a),
		newCacheCmd(a),
		newVersionCmd(a),
	)

	return root
}

// loadConfig reads configuration and sets up logging on stderr.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg.Log, a.stderr)
	return cfg, nil
}

// buildStack loads configuration and wires the translation stack.
func (a *app) buildStack() (*config.Config, *config.Stack, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	stack, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return cfg, stack, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "%s %s\n", pagetrans.Name, pagetrans.FullVersion())
			if pagetrans.BuildDate != "" {
				fmt.Fprintf(a.stdout, "  built:   %s\n", pagetrans.BuildDate)
			}
		},
	}
}

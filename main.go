package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/heathj/htmllint/engine"
	"github.com/heathj/htmllint/parser"
)

const version = "0.1.0"

// defaultConfig is read from the working directory when --config is not
// given.
const defaultConfig = ".htmllint.yaml"

// errProblems makes the process exit non-zero without printing anything
// more than the report.
var errProblems = errors.New("problems found")

type globalOptions struct {
	config  string
	verbose bool
}

func main() {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:           "htmllint",
		Short:         "Lint HTML and template markup against the HTML content model",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetOutput(os.Stderr)
			if opts.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "configuration file (default "+defaultConfig+" when present)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(newLintCmd(opts))
	rootCmd.AddCommand(newDumpCmd(opts))
	rootCmd.AddCommand(newElementsCmd(opts))
	rootCmd.AddCommand(newLSPCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		if err != errProblems {
			fmt.Fprintln(os.Stderr, "htmllint:", err)
		}
		os.Exit(1)
	}
}

// loadConfig returns the configuration named by --config, the default file
// when it exists, or an empty configuration.
func (o *globalOptions) loadConfig() (*engine.Config, error) {
	path := o.config
	if path == "" {
		if _, err := os.Stat(defaultConfig); err != nil {
			return &engine.Config{}, nil
		}
		path = defaultConfig
	}
	return engine.LoadConfig(path)
}

func (o *globalOptions) newEngine(extra ...engine.Option) (*engine.Engine, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	log := logrus.NewEntry(logrus.StandardLogger())
	opts, err := cfg.Options(log)
	if err != nil {
		return nil, err
	}
	return engine.New(append(opts, extra...)...)
}

// readSource reads a file, or stdin when path is empty or "-".
func readSource(path string, stdin io.Reader) (parser.Source, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return parser.Source{}, errors.Wrap(err, "reading stdin")
		}
		return parser.Source{Data: string(data), Filename: "<stdin>"}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return parser.Source{}, errors.Wrap(err, "reading source")
	}
	return parser.Source{Data: string(data), Filename: filepath.Clean(path)}, nil
}

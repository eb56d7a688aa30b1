// Package cli implements the ocppskema command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/ocppskema/catalog"
	"github.com/reoring/ocppskema/i18n"
	"github.com/reoring/ocppskema/internal/config"
	"github.com/reoring/ocppskema/internal/logging"
	"github.com/reoring/ocppskema/schema"
)

// ErrInvalid is returned when every input was read but at least one failed
// validation. main maps it to exit status 2.
var ErrInvalid = errors.New("validation failed")

// Version is set via ldflags.
var Version = "dev"

// app carries state shared by the subcommands once the root pre-run has
// loaded configuration.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	logJSON    bool
	lang       string

	cfg     *config.Config
	log     zerolog.Logger
	catalog *schema.Catalog
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "ocppskema",
		Short: "Lazy OCPP 2.1 message validation",
		Long: `ocppskema decodes OCPP 2.1 JSON payloads and OCPP-J frames, validates them
against the embedded message catalogue and reports every finding with its
JSON Pointer path.`,
		Example: `  # Validate a payload file
  ocppskema validate BootNotificationRequest boot.json

  # Check a capture of OCPP-J frames, one per line
  ocppskema frame capture.ndjson

  # Export a JSON Schema
  ocppskema schema export SetChargingProfileRequest

  # Serve the HTTP API
  ocppskema serve`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "ocppskema.json", "path to the JSON config file")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (overrides config)")
	pf.BoolVar(&a.logJSON, "log-json", false, "log as JSON")
	pf.StringVar(&a.lang, "lang", "", "language of diagnostic messages ("+fmt.Sprint(i18n.Languages())+")")

	root.AddCommand(
		newValidateCommand(a),
		newFrameCommand(a),
		newSchemaCommand(a),
		newDupKeysCommand(a),
		newServeCommand(a),
		newListenCommand(a),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logJSON {
		cfg.Log.JSON = true
	}
	a.cfg = cfg
	a.log = logging.New(logging.Options{
		App:   "ocppskema",
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON,
		Out:   cmd.ErrOrStderr(),
	})
	if a.lang != "" {
		i18n.SetLanguage(a.lang)
	}

	if len(cfg.Catalog) == 0 {
		a.catalog = catalog.Default()
		return nil
	}
	a.catalog, err = catalog.LoadFiles(cfg.Catalog...)
	if err != nil {
		return err
	}
	a.log.Debug().Strs("files", cfg.Catalog).Int("types", len(a.catalog.IDs())).Msg("catalogue extended")
	return nil
}

// openInput opens the named file, or stdin for "" and "-".
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", err
	}
	return f, args[0], nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ocppskema %s\n", Version)
		},
	}
}

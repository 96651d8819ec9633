// Package cli implements ubpcalc, the offline counterpart of the HTTP service:
// it runs the same calculation on a local Mengenliste export.
package cli

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ubp-service/internal/ubp/mapping"
)

type rootOptions struct {
	mapPath  string
	logLevel string
}

// NewRootCmd creates the ubpcalc root command with its subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "ubpcalc",
		Short:         "Calculate UBP (Umweltbelastungspunkte) for HiCAD model exports",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.mapPath, "map", envOr("MATERIAL_MAP_FILE", "data/material_map.yaml"),
		"material/coating mapping file (YAML or JSON)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level")

	cmd.AddCommand(newCalcCmd(opts), newMappingsCmd(opts))
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(o.logLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

func (o *rootOptions) store(log zerolog.Logger) (*mapping.Store, error) {
	st, err := mapping.Load(o.mapPath)
	if err != nil {
		return nil, err
	}
	if st.Empty() {
		log.Warn().Str("path", o.mapPath).Msg("material map not found, every component will report unmatched")
	}
	return st, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

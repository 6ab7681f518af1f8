package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TRIVIA"

type options struct {
	configPath string
	port       string
	logLevel   string
	logFormat  string
}

// Execute runs the CLI.
func Execute() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "trivia-server",
		Short:         "Live multi-table trivia game server powered by Gorilla WebSocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts.logLevel, opts.logFormat)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config/config.yaml", "path to YAML config (env: TRIVIA_CONFIG)")
	flags.StringVar(&opts.port, "port", "", "port to listen on, overrides server.port (env: TRIVIA_PORT)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level, overrides log.level (env: TRIVIA_LOG_LEVEL)")
	flags.StringVar(&opts.logFormat, "log-format", "", "console or json, overrides log.format (env: TRIVIA_LOG_FORMAT)")

	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = flags.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newStartCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.CompletionOptions.HiddenDefaultCmd = true
	return cmd
}

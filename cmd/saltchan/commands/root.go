package commands

import (
	"fmt"
	"strings"

	"github.com/pion/logging"
	"github.com/spf13/cobra"
)

var (
	logLevel      string
	loggerFactory logging.LoggerFactory
)

func Execute() error {
	root := &cobra.Command{
		Use:          "saltchan",
		Short:        "Salt Channel keys, echo server and client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			f := logging.NewDefaultLoggerFactory()
			f.DefaultLogLevel = level
			loggerFactory = f
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "disabled, error, warn, info, debug or trace")

	root.AddCommand(keygenCmd(), serveCmd(), dialCmd())
	return root.Execute()
}

func parseLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(s) {
	case "disabled", "off":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn":
		return logging.LogLevelWarn, nil
	case "info":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

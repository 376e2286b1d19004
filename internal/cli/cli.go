package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/updatecheck/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "updatecheck"

	// defaultEnvFile is read when present; a missing file is not an error.
	defaultEnvFile = ".env"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Interactive enables the progress display on stderr.
	Interactive bool

	configFile string
	envFile    string
	policyFile string
	logFormat  string
	noCache    bool
	refresh    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:      newLogger(w, level),
		Interactive: isatty.IsTerminal(os.Stderr.Fd()),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "updatecheck finds dependency updates",
		Long: `updatecheck checks dependencies against their registries and computes the
updated requirements for a target version, honoring ignore conditions,
security advisories and release cooldowns.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		f, err := parseLogFormat(c.logFormat)
		if err != nil {
			return err
		}
		c.Logger.SetFormatter(f)
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (yaml or toml)")
	flags.StringVar(&c.envFile, "env-file", defaultEnvFile, "dotenv file with UPDATECHECK_* variables")
	flags.StringVar(&c.policyFile, "policy", "", "policy file with ignore rules, advisories and cooldown")
	flags.StringVar(&c.logFormat, "log-format", "text", "log format: text, json or logfmt")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the registry response cache")
	flags.BoolVar(&c.refresh, "refresh", false, "bypass cached registry responses")

	root.AddCommand(c.checkCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

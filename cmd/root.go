// ABOUTME: Root command for the quickpoll CLI
// ABOUTME: Handles global flags, configuration, and wiring of client and session

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kballard/go-shellquote"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/markalston/quickpoll/internal/anonid"
	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/config"
	"github.com/markalston/quickpoll/internal/logger"
	"github.com/markalston/quickpoll/internal/session"
	"github.com/markalston/quickpoll/internal/store"
)

// cmdStderr receives log output from commands
var cmdStderr io.Writer = os.Stderr

var (
	apiURL     string
	jsonOutput bool
	configDir  string
	logLevel   string
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "quickpoll",
	Short: "Create polls, vote, and watch results from the terminal",
	Long: `quickpoll is a terminal client for the QuickPoll API.

Run without arguments in a terminal to open the interactive interface.

Environment Variables:
  QUICKPOLL_API_URL         Backend API URL (default: http://localhost:8001)
  QUICKPOLL_SHARE_BASE_URL  Web app URL used for share links (default: http://localhost:3000)
  QUICKPOLL_TIMEOUT         Request timeout, e.g. 30s
  QUICKPOLL_PAGE_SIZE       Polls per page (default: 20)
  QUICKPOLL_CONFIG_DIR      Where the session and config.yaml live
  QUICKPOLL_LOG_LEVEL       debug, info, warn, error
  QUICKPOLL_LOG_FORMAT      text, json`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
			cmd.Help()
			return
		}
		if code := runTUI(); code != 0 {
			os.Exit(code)
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides QUICKPOLL_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory for session state and config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig resolves configuration with command-line flags on top
func loadConfig() (*config.Config, error) {
	return config.Load(config.Overrides{
		APIURL:    apiURL,
		ConfigDir: configDir,
		LogLevel:  logLevel,
	})
}

// GetAPIURL returns the API URL from flag, env, config file, or default (in priority order)
func GetAPIURL() string {
	cfg, err := loadConfig()
	if err != nil {
		if apiURL != "" {
			return apiURL
		}
		return config.DefaultAPIURL
	}
	return cfg.APIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// deps is everything a command needs to talk to the API as the current user
type deps struct {
	cfg     *config.Config
	store   *store.Store
	client  *client.Client
	anon    *anonid.Provider
	session *session.Store
}

// newDeps loads configuration, restores the persisted session and resolves
// it against the backend
func newDeps(ctx context.Context, logOut io.Writer) (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Init(logOut, cfg.LogLevel, cfg.LogFormat)

	d := wire(cfg)
	d.session.Init(ctx)
	return d, nil
}

// wire builds the client and session for cfg. The session is left Initializing.
func wire(cfg *config.Config) *deps {
	st := store.New(cfg.ConfigDir)
	c := client.New(cfg.APIURL,
		client.WithTokenStore(st.Slot(store.KeyToken)),
		client.WithTimeout(cfg.Timeout),
	)
	anon := anonid.New(st.Slot(store.KeyAnonymousID))
	return &deps{cfg: cfg, store: st, client: c, anon: anon, session: session.New(c, anon)}
}

// requireLogin prints the login hint for protected commands and returns
// false when no user is signed in
func requireLogin(w io.Writer, d *deps, next string) bool {
	if err := d.session.Require(next); err != nil {
		fmt.Fprintf(w, "Error: login required (run: %s)\n", loginHint(next))
		return false
	}
	return true
}

// commandLine joins words so that a shell, or runNext, splits them back unchanged
func commandLine(words ...string) string {
	return shellquote.Join(words...)
}

// loginHint is the login command that resumes next
func loginHint(next string) string {
	if strings.ContainsAny(next, "\"$`\\!") {
		return shellquote.Join("quickpoll", "login", "--next", next)
	}
	return fmt.Sprintf("quickpoll login --next %q", next)
}

// signalContext is canceled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// exitWith runs fn under a signal-aware context and exits with its code
func exitWith(fn func(ctx context.Context) int) {
	ctx, cancel := signalContext()
	code := fn(ctx)
	cancel()
	if code != 0 {
		os.Exit(code)
	}
}

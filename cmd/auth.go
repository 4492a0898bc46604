// ABOUTME: Account commands: login, register, logout and whoami
// ABOUTME: Drive the session store and persist the token between runs

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/forms"
	"github.com/markalston/quickpoll/internal/session"
)

var (
	loginUsername string
	loginPassword string
	loginNext     string

	registerUsername string
	registerEmail    string
	registerPassword string
)

// promptPassword asks for a password without echo
var promptPassword = func(title string) (string, error) {
	var pw string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&pw).
		Run()
	return pw, err
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with a username or email",
	Long: `Sign in and store the access token for later commands.

When --password is omitted and stdin is a terminal, the password is prompted for.
With --next, the given quickpoll command runs after a successful login.`,
	Run: func(cmd *cobra.Command, args []string) {
		password, ok := passwordFromPrompt(cmd.OutOrStdout(), loginPassword, "Password")
		if !ok {
			os.Exit(2)
		}
		exitWith(func(ctx context.Context) int {
			return runLogin(ctx, cmd.OutOrStdout(), loginUsername, password)
		})
		if loginNext != "" {
			runNext(cmd, loginNext)
		}
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Run: func(cmd *cobra.Command, args []string) {
		password, ok := passwordFromPrompt(cmd.OutOrStdout(), registerPassword, "Choose a password")
		if !ok {
			os.Exit(2)
		}
		exitWith(func(ctx context.Context) int {
			return runRegister(ctx, cmd.OutOrStdout(), registerUsername, registerEmail, password)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session and anonymous id",
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runLogout(ctx, cmd.OutOrStdout())
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runWhoami(ctx, cmd.OutOrStdout())
		})
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username or email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginNext, "next", "", "Command to run after signing in, e.g. \"polls create\"")

	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Username")
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "Email address")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Password, at least 8 characters (prompted when omitted)")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

// passwordFromPrompt returns the flag value, or prompts when it is empty and
// stdin is a terminal
func passwordFromPrompt(w io.Writer, flagValue, title string) (string, bool) {
	if flagValue != "" || !isTerminal(os.Stdin) {
		return flagValue, true
	}
	pw, err := promptPassword(title)
	if err != nil {
		if !errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
		return "", false
	}
	return pw, true
}

// runNext executes the command preserved by a login redirect
func runNext(cmd *cobra.Command, next string) {
	args, err := shellquote.Split(next)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: invalid --next command: %v\n", err)
		os.Exit(2)
	}
	root := cmd.Root()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		os.Exit(2)
	}
}

// runLogin validates credentials and signs in
func runLogin(ctx context.Context, w io.Writer, identifier, password string) int {
	form := forms.LoginForm{Identifier: identifier, Password: password}
	if err := form.Validate(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if err := d.session.Login(ctx, strings.TrimSpace(identifier), password); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}

	writeUser(w, d.session, "Logged in as")
	return 0
}

// runRegister validates the new account and signs in as it
func runRegister(ctx context.Context, w io.Writer, username, email, password string) int {
	form := forms.RegisterForm{Username: username, Email: email, Password: password}
	if err := form.Validate(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if err := d.session.Register(ctx, strings.TrimSpace(username), strings.TrimSpace(email), password); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}

	writeUser(w, d.session, "Registered and logged in as")
	return 0
}

// runLogout clears the stored token and anonymous id
func runLogout(ctx context.Context, w io.Writer) int {
	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	d.session.Logout()

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{"state": d.session.Snapshot().State.String()}, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}
	fmt.Fprintln(w, "Logged out")
	return 0
}

// runWhoami prints the current user, or exits 1 when anonymous
func runWhoami(ctx context.Context, w io.Writer) int {
	d, err := newDeps(ctx, cmdStderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatWhoamiJSON(d.session))
	} else {
		fmt.Fprintln(w, formatWhoamiHuman(d.session, time.Now()))
	}
	if !d.session.IsAuthenticated() {
		return 1
	}
	return 0
}

func writeUser(w io.Writer, s *session.Store, verb string) {
	if IsJSONOutput() {
		fmt.Fprintln(w, formatWhoamiJSON(s))
		return
	}
	fmt.Fprintf(w, "%s %s\n", verb, s.User().Username)
}

// formatWhoamiHuman formats the session for human readability
func formatWhoamiHuman(s *session.Store, now time.Time) string {
	u := s.User()
	if u == nil {
		return "Not logged in (anonymous)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Username: %s\n", u.Username)
	if u.Email != "" {
		fmt.Fprintf(&b, "Email:    %s\n", u.Email)
	}
	fmt.Fprintf(&b, "User ID:  %s", u.ID)
	if exp, ok := s.TokenExpiry(); ok {
		fmt.Fprintf(&b, "\nSession:  expires %s", humanize.RelTime(exp, now, "ago", "from now"))
	}
	return b.String()
}

// formatWhoamiJSON formats the session as JSON
func formatWhoamiJSON(s *session.Store) string {
	snap := s.Snapshot()
	output := map[string]interface{}{
		"state": snap.State.String(),
	}
	if snap.User != nil {
		output["user"] = snap.User
	}
	if exp, ok := s.TokenExpiry(); ok {
		output["expires_at"] = exp.UTC().Format(time.RFC3339)
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}

// failure prints a failed result and returns its exit code: 2 when the
// backend was unreachable, 1 otherwise
func failure[T any](w io.Writer, res client.Result[T], fallback string) int {
	fmt.Fprintf(w, "Error: %s\n", res.Failure(fallback))
	if res.IsNetworkError() {
		return 2
	}
	return 1
}

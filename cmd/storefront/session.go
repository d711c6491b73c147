package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	appidentity "github.com/abarrotes/storefront/internal/application/identity"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/shared"
)

type credentialFlags struct {
	store    string
	user     string
	password string
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.store, "store", "s", "", "store id: tottus, plazavea or wong")
	cmd.Flags().StringVarP(&f.user, "user", "u", "", "user id")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "password (prompted for when omitted)")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("user")
}

// readPassword returns the password flag, or prompts for it on a terminal,
// or reads one line from a piped stdin
func (env *environment) readPassword(f *credentialFlags) (string, error) {
	if f.password != "" {
		return f.password, nil
	}
	if file, ok := env.stdin.(*os.File); ok && isTerminal(file) {
		pw, err := readline.Password("Password: ")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(env.stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("password required: use --password or pipe it on stdin")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func newLoginCommand(env *environment) *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Log in to a store",
		GroupID: "session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := env.readPassword(&f)
			if err != nil {
				return err
			}
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			session, err := a.sessions.Login(cmd.Context(), appidentity.LoginInput{
				TenantID: f.store,
				UserID:   f.user,
				Password: password,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s (%s)\n",
				session.TenantID.DisplayName(), session.UserID, session.Role)
			a.cart.Adopt(cmd.Context(), session.UserID)
			if tenant := a.cart.Tenant(); tenant != "" && tenant != session.TenantID {
				fmt.Fprintf(cmd.OutOrStdout(), "Your cart holds products from %s; empty it before shopping here\n",
					tenant.DisplayName())
			}
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newRegisterCommand(env *environment) *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:     "register",
		Short:   "Create an account at a store",
		GroupID: "session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := env.readPassword(&f)
			if err != nil {
				return err
			}
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			if err := a.sessions.Register(cmd.Context(), appidentity.RegisterInput{
				TenantID: f.store,
				UserID:   f.user,
				Password: password,
			}); err != nil {
				return err
			}
			tenant, _ := catalog.ParseTenant(f.store)
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s created at %s. Log in with 'storefront login'\n",
				strings.TrimSpace(f.user), tenant.DisplayName())
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newLogoutCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Short:   "Forget the session; the cart is kept",
		GroupID: "session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			if err := a.sessions.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(env *environment) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:     "whoami",
		Short:   "Show the current session",
		GroupID: "session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			session, err := a.sessions.Current(ctx)
			if err != nil {
				return err
			}
			if session == nil {
				return shared.ErrNotAuthenticated
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s at %s (%s)\n", session.UserID, session.TenantID.DisplayName(), session.Role)
			if !session.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "Session expires %s\n", session.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			if !check {
				return nil
			}
			valid, message, err := a.sessions.Validate(ctx)
			if err != nil {
				return err
			}
			if !valid {
				return shared.ErrNotAuthenticated.WithMessage("The store rejected the session: " + message)
			}
			fmt.Fprintln(out, "The store accepts the session")
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "ask the store whether the session is still valid")
	return cmd
}

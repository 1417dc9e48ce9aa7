package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tech-arch1tect/backoffice/app"
	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/auth"
	"golang.org/x/term"
)

// readPassword is swapped out in tests.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

type registrar interface {
	Register(ctx context.Context, input auth.RegisterInput) (*account.User, error)
}

func newUserAddCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "useradd <username>",
		Short: "Create a back office account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.NewApp().WithAutoConfig().WithoutServer().Build()
			if err != nil {
				return err
			}
			if err := application.Start(); err != nil {
				return err
			}
			defer application.Stop()

			return addUser(cmd.Context(), application.Auth(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0], email)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address (prompted when empty)")

	return cmd
}

func addUser(ctx context.Context, svc registrar, in io.Reader, out io.Writer, username, email string) error {
	if email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		email = strings.TrimSpace(line)
	}

	fmt.Fprint(out, "Password: ")
	password, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	user, err := svc.Register(ctx, auth.RegisterInput{
		Username: username,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created %s (%s)\n", user.Username, user.UserID)
	return nil
}

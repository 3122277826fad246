package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sunwoojg/carelink/internal/client/api"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(syscall.Stdin))
}

// readLine is a test seam for prompting a single line.
var readLine = func(prompt string, in io.Reader, out io.Writer) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist credentials locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		email, err := readLine("Email: ", cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		password, err := readPassword()
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return err
		}

		u, err := a.sess.Login(cmd.Context(), api.Credentials{
			Email:    email,
			Password: string(password),
		})
		wipe(password)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Name, u.Role)
		return nil
	},
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

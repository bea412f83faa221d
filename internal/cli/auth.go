package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	registerName  string
	registerEmail string
	loginEmail    string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and bind this machine's conversation to it",
	RunE:  runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and recover your conversation user ID",
	RunE:  runLogin,
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "email address")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "email address")
}

// promptPassword reads a password without echoing it.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	name := registerName
	email := registerEmail
	var err error

	if name == "" {
		if name, err = promptLine("Name: "); err != nil {
			return err
		}
	}
	if email == "" {
		if email, err = promptLine("Email: "); err != nil {
			return err
		}
	}

	password, err := promptPassword("Password (min 8 chars): ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	resp, err := api.Register(context.Background(), name, email, password)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	if err := saveSession(&Session{UserID: resp.UserID, Name: resp.Name, Email: email, Token: resp.Token}); err != nil {
		return err
	}
	fmt.Printf("Registered %s. Conversations on this machine now use your account ID.\n", email)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	email := loginEmail
	var err error

	if email == "" {
		if email, err = promptLine("Email: "); err != nil {
			return err
		}
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	resp, err := api.Login(context.Background(), email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := saveSession(&Session{UserID: resp.UserID, Name: resp.Name, Email: email, Token: resp.Token}); err != nil {
		return err
	}
	fmt.Printf("Welcome back, %s. Your conversation history follows your account.\n", resp.Name)
	return nil
}

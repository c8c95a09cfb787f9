package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/posthub/posthub/internal/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Register, sign in and out, and inspect the current session.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with username or email",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Destroy the current session",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(whoamiCmd)
}

func prompt(label string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s: ", label)
	value, _ := reader.ReadString('\n')
	return strings.TrimSpace(value)
}

func promptPassword(label string) string {
	fmt.Printf("%s: ", label)
	passwordBytes, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(passwordBytes)
}

func runLogin(cmd *cobra.Command, args []string) error {
	_, _, _, provider, err := newRuntime()
	if err != nil {
		return err
	}

	username := prompt("Username or email")
	password := promptPassword("Password")

	fmt.Println("Signing in...")
	sess, err := provider.Login(context.Background(), username, password)
	if err != nil {
		return err
	}

	fmt.Printf("Signed in as %s.\n", sess.User.DisplayName())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	_, _, _, provider, err := newRuntime()
	if err != nil {
		return err
	}

	if provider.CurrentUser() == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	if err := provider.Logout(context.Background()); err != nil {
		return err
	}

	fmt.Println("Signed out.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	_, _, _, provider, err := newRuntime()
	if err != nil {
		return err
	}

	name := prompt("Full name")
	email := prompt("Email")
	username := prompt("Username")
	password := promptPassword("Password")
	confirm := promptPassword("Confirm password")

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	fmt.Println("Creating account...")
	sess, err := provider.Register(context.Background(), auth.Registration{
		Username: username,
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Account created. Signed in as %s.\n", sess.User.DisplayName())
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	_, _, _, provider, err := newRuntime()
	if err != nil {
		return err
	}

	user := provider.CurrentUser()
	if user == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Printf("%s (@%s)", user.DisplayName(), user.Username)
	if user.Role != "" {
		fmt.Printf("  [%s]", user.Role)
	}
	fmt.Println()
	if user.Email != "" {
		fmt.Println(user.Email)
	}
	return nil
}

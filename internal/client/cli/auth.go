package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/zkauth/internal/common"
)

// Register prompts for a username and password and creates the account.
// The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	msg, err := a.authService.Register(ctx, userName, password)
	if err != nil {
		fmt.Fprintf(a.out, "Registration failed: %v\n", err)
		return err
	}

	fmt.Fprintln(a.out, msg)
	return nil
}

// Login prompts for credentials and proves knowledge of the password.
// On success the session belongs to the returned user until Logout.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.authService.Login(ctx, userName, password)
	if err != nil {
		fmt.Fprintf(a.out, "Login unsuccessful: %v\n", err)
		return err
	}

	a.userName = user
	fmt.Fprintln(a.out, "Login successful!")
	return nil
}

// Whoami asks the server who the current session belongs to.
func (a *App) Whoami(ctx context.Context) error {
	user, err := a.authService.Whoami(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Not authenticated: %v\n", err)
		return err
	}

	fmt.Fprintf(a.out, "You are logged in as %s!\n", user)
	return nil
}

// Logout ends the session. The local state is cleared even when the server
// could not be reached.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx)
	a.userName = ""
	if err != nil {
		fmt.Fprintf(a.out, "Logout: %v\n", err)
		return err
	}

	fmt.Fprintln(a.out, "Logout successful!")
	return nil
}

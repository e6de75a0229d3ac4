package cli

import (
	"context"
	"errors"
	"os"

	"github.com/mkravets/fieldops/internal/client/api"
	"github.com/mkravets/fieldops/internal/common"
)

// getSimpleText and getPIN are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPIN = GetPIN

// Login prompts for a badge number and PIN and tries to authenticate.
//
// It first attempts an online login; if the server is unreachable it falls
// back to verifying against locally cached credentials, so a worker already
// provisioned on this device can open the app without coverage.
func (a *App) Login(ctx context.Context) error {
	badge, err := getSimpleText(a.reader, "Enter badge number", os.Stdout)
	if err != nil {
		return err
	}

	pin, err := getPIN(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin)

	err = a.authService.OnlineLogin(ctx, badge, pin)
	if err != nil {
		if !errors.Is(err, api.ErrUnavailable) {
			printlnFn("Login failed:", err.Error())
			return err
		}

		printlnFn("Server unavailable, trying offline login...")
		if err := a.authService.OfflineLogin(ctx, badge, pin); err != nil {
			printlnFn("Offline login failed:", err.Error())
			return err
		}
		printlnFn("Offline login successful")
	} else {
		printlnFn("Login successful")
	}

	a.badge = badge
	a.loggedIn = true
	return nil
}

// Logout clears cached credentials and forgets the in-memory session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.ClearOfflineData(ctx); err != nil {
		return err
	}
	a.badge = ""
	a.loggedIn = false
	printlnFn("Logged out")
	return nil
}

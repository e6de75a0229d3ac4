package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/mkravets/fieldops/internal/client/api"
)

func stubInputs(t *testing.T, badge string, pin []byte) func() {
	t.Helper()
	origST, origGP := getSimpleText, getPIN
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return badge, nil }
	getPIN = func(_ io.Writer) ([]byte, error) { return append([]byte(nil), pin...), nil }
	return func() {
		getSimpleText = origST
		getPIN = origGP
	}
}

type fakeAuth struct {
	onlineBadge string
	onlinePIN   []byte
	onlineErr   error

	offlineBadge string
	offlineErr   error

	clearCalled bool
	clearErr    error
}

func (f *fakeAuth) OnlineLogin(_ context.Context, badge string, pin []byte) error {
	f.onlineBadge, f.onlinePIN = badge, append([]byte(nil), pin...)
	return f.onlineErr
}
func (f *fakeAuth) OfflineLogin(_ context.Context, badge string, pin []byte) error {
	f.offlineBadge = badge
	return f.offlineErr
}
func (f *fakeAuth) Ping(ctx context.Context) error  { return nil }
func (f *fakeAuth) Close(ctx context.Context) error { return nil }
func (f *fakeAuth) ClearOfflineData(context.Context) error {
	f.clearCalled = true
	return f.clearErr
}

func TestLogin_Online(t *testing.T) {
	silencePrintln(t)
	f := &fakeAuth{}
	a := &App{authService: f}

	restore := stubInputs(t, "B-1042", []byte("4821"))
	defer restore()

	if err := a.Login(context.Background()); err != nil {
		t.Fatalf("Login err: %v", err)
	}
	if f.onlineBadge != "B-1042" {
		t.Fatalf("badge mismatch: %q", f.onlineBadge)
	}
	if !a.isLoggedIn() || a.badge != "B-1042" {
		t.Fatalf("session not established")
	}
}

func TestLogin_OfflineFallback(t *testing.T) {
	silencePrintln(t)
	f := &fakeAuth{onlineErr: api.ErrUnavailable}
	a := &App{authService: f}

	restore := stubInputs(t, "B-1042", []byte("4821"))
	defer restore()

	if err := a.Login(context.Background()); err != nil {
		t.Fatalf("Login err: %v", err)
	}
	if f.offlineBadge != "B-1042" {
		t.Fatalf("offline login not attempted")
	}
	if !a.isLoggedIn() {
		t.Fatalf("session not established")
	}
}

func TestLogin_NoFallbackOnAuthError(t *testing.T) {
	silencePrintln(t)
	f := &fakeAuth{onlineErr: errors.New("bad pin")}
	a := &App{authService: f}

	restore := stubInputs(t, "B-1042", []byte("0000"))
	defer restore()

	if err := a.Login(context.Background()); err == nil {
		t.Fatalf("want error")
	}
	if f.offlineBadge != "" {
		t.Fatalf("offline login must not run on auth failure")
	}
	if a.isLoggedIn() {
		t.Fatalf("session established on failure")
	}
}

func TestLogout(t *testing.T) {
	silencePrintln(t)
	f := &fakeAuth{}
	a := &App{authService: f, badge: "B-1042", loggedIn: true}

	if err := a.Logout(context.Background()); err != nil {
		t.Fatalf("Logout err: %v", err)
	}
	if !f.clearCalled {
		t.Fatalf("ClearOfflineData not called")
	}
	if a.isLoggedIn() || a.badge != "" {
		t.Fatalf("session not cleared")
	}
}

func TestLogout_ErrorPropagates(t *testing.T) {
	silencePrintln(t)
	f := &fakeAuth{clearErr: errors.New("clean-fail")}
	a := &App{authService: f}
	if err := a.Logout(context.Background()); err == nil {
		t.Fatalf("want error from ClearOfflineData")
	}
}

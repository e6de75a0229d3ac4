package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("B-1042\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Badge?", &out)
	if err != nil || got != "B-1042" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if !strings.Contains(out.String(), "Badge?") {
		t.Fatalf("prompt not printed: %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Badge?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetMultiline_EmptyLineEnds(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("pump failed\nreplaced seal\n\n"))
	var out bytes.Buffer
	got, err := GetMultiline(in, "Enter report text", &out)
	if err != nil {
		t.Fatal(err)
	}
	want := "pump failed\nreplaced seal"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGetMultiline_CRLF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("a\r\nb\r\n\r\n"))
	var out bytes.Buffer
	got, err := GetMultiline(in, "Enter report text", &out)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a\nb" {
		t.Fatalf("got %q", got)
	}
}

func TestGetPIN_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPIN(&out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetPIN(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return []byte("4821"), nil
	}
	var out bytes.Buffer
	pin, err := GetPIN(&out)
	if err != nil || string(pin) != "4821" {
		t.Fatalf("got %q, err=%v", pin, err)
	}
}

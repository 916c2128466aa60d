package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/eringen/pressfront"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got, want := out.String(), "pressfront "+pressfront.Version+"\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestServeRequiresAPIURL(t *testing.T) {
	t.Setenv("WORDPRESS_API_URL", "")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve", "--env-file", ""})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected a config error")
	}
	if !strings.Contains(err.Error(), "WORDPRESS_API_URL") {
		t.Errorf("error %q does not name WORDPRESS_API_URL", err)
	}
}

func TestRootRegistersCommands(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"serve", "export", "version"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

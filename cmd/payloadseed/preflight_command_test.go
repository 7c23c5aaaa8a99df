package main

import (
	"encoding/json"
	"testing"

	"payloadseed/internal/testsupport"
)

func TestPreflightCommandPasses(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight: %v\n%s", err, out)
	}
	requireContains(t, out, "Staging directory:")
	requireContains(t, out, "Image source:")
	requireContains(t, out, "SQLite store:")
	if env.images.Requests() == 0 {
		t.Fatal("expected the image source to be probed")
	}
}

func TestPreflightCommandJSONReportsFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Source.BaseURL = "http://127.0.0.1:1"
	testsupport.WriteConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"preflight", "--json"}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight to fail")
	}
	var payload struct {
		Passed bool `json:"passed"`
		Checks []struct {
			Name   string
			Passed bool
		} `json:"checks"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if payload.Passed {
		t.Fatal("expected passed=false")
	}
	for _, check := range payload.Checks {
		if check.Name == "Image source" && check.Passed {
			t.Fatal("image source should fail")
		}
	}
}

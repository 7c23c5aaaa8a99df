package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"payloadseed/internal/config"
	"payloadseed/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	images     *testsupport.ImageServer
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	images := testsupport.NewImageServer(t)
	opts = append([]testsupport.ConfigOption{testsupport.WithSourceURL(images.URL)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"
	cfg.Logging.RetentionDays = 0

	base := testsupport.BaseDir(cfg)
	configPath := testsupport.WriteConfig(t, filepath.Join(base, "config.toml"), cfg)

	return &cliTestEnv{
		cfg:        cfg,
		images:     images,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

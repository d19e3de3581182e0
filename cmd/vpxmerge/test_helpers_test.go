package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vpxmerge/internal/bake"
	"vpxmerge/internal/testsupport"
)

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeTestConfig writes a config file whose history database lives under
// the test's temp tree and returns its path.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	configPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(
		"[history]\nenabled = true\npath = %q\n\n[logging]\nlevel = \"error\"\n",
		filepath.Join(dir, "history.db"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func sourceTable(t *testing.T, dir string) string {
	t.Helper()
	gameData := testsupport.GameData(testsupport.GameDataOpts{
		Script:     "Option Explicit\n",
		Materials:  []string{"Metal"},
		ImageCount: 1,
		ItemCount:  1,
	})
	return testsupport.Table(t, dir, gameData,
		[][]byte{testsupport.Wall("Wall1", "wall_tex", true)},
		[][]byte{testsupport.Image("wall_tex")},
	)
}

func bakesDir(t *testing.T, dir string) string {
	t.Helper()
	packDir := filepath.Join(dir, "bakes")
	if err := os.MkdirAll(packDir, 0o755); err != nil {
		t.Fatalf("mkdir bakes: %v", err)
	}
	testsupport.Pack(t, packDir, &bake.Snapshot{
		Sources: []bake.Source{{Name: "Wall1"}},
	}, nil)
	return packDir
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

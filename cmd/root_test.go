package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"baro-mod-manager/logger"
)

// executeRoot runs the command tree with args and returns its output.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	state := t.TempDir()
	cfgPath := filepath.Join(state, "BaroBaro.toml")
	content := fmt.Sprintf("log_file = %q\ndatabase_path = %q\n",
		filepath.ToSlash(filepath.Join(state, "test.log")),
		filepath.ToSlash(filepath.Join(state, "hashes.db")))
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		cfgFile = ""
		logger.Sync()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRootWithoutSubcommandListsMods(t *testing.T) {
	home := t.TempDir()
	writeTestMod(t, home, "2518816103", "BaroTraumatic", "2518816103")
	writeTestMod(t, home, "mine", "My Local Mod", "")

	out, err := executeRoot(t, "--game-home", home)
	if err != nil {
		t.Fatalf("root command failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "Workshop ID") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "My Local Mod") || !strings.Contains(lines[2], "BaroTraumatic") {
		t.Errorf("unexpected rows:\n%s", out)
	}
}

func TestRootRejectsArguments(t *testing.T) {
	if _, err := executeRoot(t, "--game-home", t.TempDir(), "unknown-thing"); err == nil {
		t.Fatal("expected an error for a stray argument")
	}
}

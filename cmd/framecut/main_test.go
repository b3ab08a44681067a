package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/framecut/framecut/internal/catalog"
	"github.com/framecut/framecut/internal/db"
	"github.com/framecut/framecut/internal/probe"
)

func setupRepo(t *testing.T) catalog.Repository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return catalog.NewRepository(database.Conn())
}

func TestEnsureAuthToken_Stable(t *testing.T) {
	repo := setupRepo(t)

	first, err := ensureAuthToken(repo)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64", len(first))
	}
	second, err := ensureAuthToken(repo)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("token should be reused across starts")
	}
}

func TestImportPaths(t *testing.T) {
	repo := setupRepo(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.mp4")
	if err := os.WriteFile(good, []byte("fake"), 0644); err != nil {
		t.Fatal(err)
	}
	svc := catalog.NewService(repo, probe.Static{good: {Duration: 3, Resolution: "640x360"}}, nil, nil)

	var out bytes.Buffer
	err := importPaths(context.Background(), &out, svc, []string{good, filepath.Join(dir, "missing.mp4")}, false)
	if err != nil {
		t.Fatalf("importPaths() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "added") || !strings.HasPrefix(lines[1], "skip") {
		t.Errorf("output = %q", out.String())
	}

	var table bytes.Buffer
	clips, _ := svc.ListClips(context.Background())
	if err := writeClipTable(&table, clips); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(table.String(), "good.mp4") || !strings.Contains(table.String(), "3.00s") || !strings.Contains(table.String(), "ADDED") {
		t.Errorf("table = %q", table.String())
	}

	out.Reset()
	if err := importPaths(context.Background(), &out, svc, []string{filepath.Join(dir, "missing.mp4")}, false); err == nil {
		t.Error("importPaths() with nothing imported should fail")
	}
}

func TestImportPaths_Queue(t *testing.T) {
	repo := setupRepo(t)
	dir := t.TempDir()
	p := filepath.Join(dir, "clip.mov")
	if err := os.WriteFile(p, []byte("fake"), 0644); err != nil {
		t.Fatal(err)
	}
	svc := catalog.NewService(repo, probe.Static{}, nil, nil)

	var out bytes.Buffer
	if err := importPaths(context.Background(), &out, svc, []string{p}, true); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "queued") {
		t.Errorf("output = %q", out.String())
	}
	jobs, err := repo.ListPendingJobs(context.Background())
	if err != nil || len(jobs) != 1 {
		t.Errorf("pending jobs = %d, err = %v", len(jobs), err)
	}
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "import", "clips", "probe", "doctor", "version"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "framecut ") {
		t.Errorf("version output = %q", out.String())
	}
}

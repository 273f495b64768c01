package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movieetl/internal/etl"
	"movieetl/internal/logging"
)

// Tests in this file are not parallel: run installs the global logger.

func restoreLogger(t *testing.T) {
	t.Helper()
	orig := logging.Logger()
	t.Cleanup(func() { logging.SetLogger(orig) })
}

func writeMovies(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestFlagOverrides_OnlyExplicitFlags(t *testing.T) {
	fs, _ := newFlagSet(&bytes.Buffer{})
	err := fs.Parse([]string{
		"-batch-size", "5000",
		"-include-adult=false",
		"-exclude", "adult,missing_poster",
		"-progress-interval", "2s",
		"-validate",
		"in.jsonl",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"runtime.batch_size":        5000,
		"schema.include_adult":      false,
		"filter.exclude":            "adult,missing_poster",
		"runtime.progress_interval": 2 * time.Second,
	}, flagOverrides(fs))
	assert.Equal(t, []string{"in.jsonl"}, fs.Args())
}

func TestFlagKeys_EveryFlagIsMapped(t *testing.T) {
	fs, _ := newFlagSet(&bytes.Buffer{})
	fs.VisitAll(func(f *flag.Flag) {
		if f.Name == "config" || f.Name == "validate" {
			return
		}
		_, ok := flagKeys[f.Name]
		assert.True(t, ok, "flag -%s has no config key", f.Name)
	})
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	restoreLogger(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), nil, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), usageLine)
	assert.Empty(t, stdout.String())
}

func TestRun_TooManyArgs(t *testing.T) {
	restoreLogger(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"a.jsonl", "b.db", "c"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), usageLine)
}

func TestRun_Validate(t *testing.T) {
	restoreLogger(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-validate", "-profile", "filtered", "in.jsonl"}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "configuration is valid")
}

func TestRun_ValidateReportsIssues(t *testing.T) {
	restoreLogger(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-validate", "-batch-size", "0", "-exclude", "adult,nope", "-filter", "in.jsonl"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "error: runtime.batch_size")
	assert.Contains(t, stderr.String(), "error: filter.exclude")
	assert.NotContains(t, stdout.String(), "configuration is valid")
}

func TestRun_EndToEnd(t *testing.T) {
	restoreLogger(t)

	input := writeMovies(t,
		`{"id": 5, "title": "X", "adult": false, "budget": 0, "genres": [{"id": 1, "name": "Action"}], "poster_path": "/p.jpg", "overview": "plot"}`,
		`{"id": 6, "title": "Y", "adult": true, "poster_path": "/q.jpg", "overview": "plot"}`,
		`not json`,
		`{"id": 7, "title": "Z", "adult": false, "poster_path": "", "overview": "plot"}`,
	)
	dbPath := filepath.Join(t.TempDir(), "out.db")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-profile", "filtered", "-batch-size", "1", input, dbPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "1 stored │ "), out)
	assert.Contains(t, out, "Finished: 1 stored │ 2 skipped │ 1 malformed │ 0 invalid │")
	finished := out[strings.Index(out, "Finished:"):]
	finished = finished[:strings.IndexByte(finished, '\n')]
	assert.True(t, strings.HasSuffix(finished, " r/s"), finished)
	assert.Contains(t, out, "  skipped adult: 1\n")
	assert.Contains(t, out, "  skipped missing_poster: 1\n")
	assert.Contains(t, stderr.String(), "bad json")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM movies`).Scan(&n))
	assert.Equal(t, 1, n)
	var genres int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM movie_genres WHERE movie_id = 5`).Scan(&genres))
	assert.Equal(t, 1, genres)
}

func TestRun_InputNotFound(t *testing.T) {
	restoreLogger(t)

	dbPath := filepath.Join(t.TempDir(), "out.db")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.jsonl"), dbPath}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "input file not found")
	assert.NotContains(t, stdout.String(), "Finished:")
	_, err := os.Stat(dbPath)
	assert.True(t, errors.Is(err, os.ErrNotExist), "database must not be created")
}

func TestIngest_PollsProgress(t *testing.T) {
	orig := runFn
	defer func() { runFn = orig }()

	runFn = func(ctx context.Context, opts etl.Options) (etl.Summary, error) {
		time.Sleep(50 * time.Millisecond)
		return etl.Summary{Stored: 3}, nil
	}

	var buf bytes.Buffer
	sum, err := ingest(context.Background(), etl.Options{Progress: etl.NewProgress()}, 5*time.Millisecond, newReporter(&buf))
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Stored)
	assert.Contains(t, buf.String(), "0 stored │ 0 skipped │")
}

func TestIngest_PropagatesError(t *testing.T) {
	orig := runFn
	defer func() { runFn = orig }()

	boom := errors.New("flush failed")
	runFn = func(ctx context.Context, opts etl.Options) (etl.Summary, error) {
		return etl.Summary{}, boom
	}

	_, err := ingest(context.Background(), etl.Options{}, 0, newReporter(&bytes.Buffer{}))
	assert.ErrorIs(t, err, boom)
}

func TestReporter_GroupsThousands(t *testing.T) {
	var buf bytes.Buffer
	r := newReporter(&buf)

	r.progress(etl.Summary{Stored: 12345, Skipped: 3, Elapsed: 4200 * time.Millisecond})
	r.finished(etl.Summary{
		Stored:      1234567,
		Skipped:     2,
		SkipReasons: map[string]int64{"missing_poster": 1, "adult": 1},
		Elapsed:     2 * time.Second,
		Throughput:  617283.5,
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "12,345 stored │ 3 skipped │ 4.2s │"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Finished: 1,234,567 stored │ 2 skipped │"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], "│ 2.0s │ 617,284 r/s"), lines[1])
	assert.Equal(t, "  skipped adult: 1", lines[2])
	assert.Equal(t, "  skipped missing_poster: 1", lines[3])
}

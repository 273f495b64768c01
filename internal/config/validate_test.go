package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validPipeline(t *testing.T, profile string) Pipeline {
	t.Helper()
	p, err := Defaults(profile)
	if err != nil {
		t.Fatalf("Defaults(%q) error = %v", profile, err)
	}
	p.Input.Path = "movies.jsonl"
	return p
}

/*
TestValidatePipeline_ValidProfiles verifies that both profiles produce no
issues once an input path is set.
*/
func TestValidatePipeline_ValidProfiles(t *testing.T) {
	t.Parallel()

	for _, profile := range []string{ProfileNormalized, ProfileFiltered} {
		issues := ValidatePipeline(validPipeline(t, profile))
		if len(issues) != 0 {
			t.Fatalf("profile %s: expected no issues, got %+v", profile, issues)
		}
	}
}

func TestValidatePipeline_Findings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *Pipeline)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{
			name:   "missing input path",
			mutate: func(p *Pipeline) { p.Input.Path = "" },
			sev:    SeverityError, path: "input.path", msg: "must not be empty",
		},
		{
			name:   "missing job",
			mutate: func(p *Pipeline) { p.Job = "" },
			sev:    SeverityError, path: "job", msg: "must not be empty",
		},
		{
			name:   "unknown storage kind",
			mutate: func(p *Pipeline) { p.Storage.Kind = "oracle" },
			sev:    SeverityError, path: "storage.kind", msg: "must be one of",
		},
		{
			name:   "zero batch size",
			mutate: func(p *Pipeline) { p.Runtime.BatchSize = 0 },
			sev:    SeverityError, path: "runtime.batch_size", msg: "at least 1",
		},
		{
			name:   "bad table identifier",
			mutate: func(p *Pipeline) { p.Storage.Table = "movies; DROP" },
			sev:    SeverityError, path: "storage.table", msg: "invalid table name",
		},
		{
			name:   "table collides with child table",
			mutate: func(p *Pipeline) { p.Storage.Table = "movie_genres" },
			sev:    SeverityError, path: "storage.table", msg: "collides",
		},
		{
			name:   "unknown bool encoding",
			mutate: func(p *Pipeline) { p.Normalize.BoolEncoding = "tri-state" },
			sev:    SeverityError, path: "normalize.bool_encoding", msg: "unknown boolean encoding",
		},
		{
			name:   "unknown exclusion",
			mutate: func(p *Pipeline) { p.Filter.Exclude = []string{"adult", "low_votes"} },
			sev:    SeverityError, path: "filter.exclude", msg: `unknown exclusion "low_votes"`,
		},
		{
			name: "filter enabled without exclusions",
			mutate: func(p *Pipeline) {
				p.Filter.Enabled = true
				p.Filter.Exclude = nil
			},
			sev: SeverityWarning, path: "filter.exclude", msg: "nothing will be skipped",
		},
		{
			name:   "pushgateway without url",
			mutate: func(p *Pipeline) { p.Metrics.Backend = "pushgateway" },
			sev:    SeverityError, path: "metrics.pushgateway_url", msg: "requires a URL",
		},
		{
			name:   "datadog without address",
			mutate: func(p *Pipeline) { p.Metrics.Backend = "datadog" },
			sev:    SeverityError, path: "metrics.statsd_addr", msg: "DogStatsD",
		},
		{
			name: "postgres ignores pragmas",
			mutate: func(p *Pipeline) {
				p.Storage.Kind = "postgres"
				p.Storage.DSN = "postgresql://u@localhost/db"
			},
			sev: SeverityWarning, path: "storage.journal_mode", msg: "ignored by postgres",
		},
		{
			name:   "bad log level",
			mutate: func(p *Pipeline) { p.Logging.Level = "loud" },
			sev:    SeverityError, path: "logging.level", msg: "must be one of",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := validPipeline(t, ProfileNormalized)
			tt.mutate(&p)
			issues := ValidatePipeline(p)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tt.sev, tt.path, tt.msg, issues)
			}
		})
	}
}

func TestHasErrorsAndErr(t *testing.T) {
	t.Parallel()

	warn := Issue{Severity: SeverityWarning, Path: "a", Message: "w"}
	bad := Issue{Severity: SeverityError, Path: "b", Message: "e"}

	if HasErrors([]Issue{warn}) {
		t.Fatalf("HasErrors(warning only) = true, want false")
	}
	if Err([]Issue{warn}) != nil {
		t.Fatalf("Err(warning only) != nil")
	}
	if !HasErrors([]Issue{warn, bad}) {
		t.Fatalf("HasErrors = false, want true")
	}
	err := Err([]Issue{warn, bad})
	if err == nil || !strings.Contains(err.Error(), "error at b: e") {
		t.Fatalf("Err() = %v, want it to mention the error issue", err)
	}
}

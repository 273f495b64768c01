package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"movieetl/internal/schema"
	"movieetl/internal/transformer"
	"movieetl/internal/transformer/builtin"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced but does
	// not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted koanf path into the config (e.g. "storage.kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field names in errors are the
// koanf tag names so paths match the config file.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	issues := structIssues(p)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateNormalize(p)...)
	issues = append(issues, validateFilter(p.Filter)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	return issues
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err joins the error-severity issues into one error, or returns nil.
func Err(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}

// structIssues turns validator tag failures into Issues.
func structIssues(p Pipeline) []Issue {
	err := getValidator().Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Severity: SeverityError, Path: "", Message: err.Error()}}
	}

	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Pipeline.storage.kind"; drop the type name.
		_, path, _ := strings.Cut(fe.Namespace(), ".")
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path,
			Message:  tagMessage(fe),
		})
	}
	return issues
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "min":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("must be a URL, got %q", fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if _, err := schema.New(schema.Options{Table: s.Table}); err != nil && s.Table != "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.table",
			Message:  err.Error(),
		})
	}

	switch s.Kind {
	case "postgres":
		if s.JournalMode != "" || s.Synchronous != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "storage.journal_mode",
				Message:  "journal_mode and synchronous are SQLite pragmas and are ignored by postgres",
			})
		}
		if s.DSN != "" && !strings.Contains(s.DSN, "://") && !strings.Contains(s.DSN, "=") {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "storage.dsn",
				Message:  fmt.Sprintf("%q does not look like a postgres connection string", s.DSN),
			})
		}
	case "sqlite":
		if s.DBSchema != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "storage.db_schema",
				Message:  "db_schema is ignored by sqlite",
			})
		}
	}
	return issues
}

func validateNormalize(p Pipeline) []Issue {
	if p.Normalize.BoolEncoding == "" {
		return nil // reported by the struct rules
	}
	if _, err := transformer.ParseBoolEncoding(p.Normalize.BoolEncoding); err != nil {
		return []Issue{{
			Severity: SeverityError,
			Path:     "normalize.bool_encoding",
			Message:  err.Error(),
		}}
	}
	return nil
}

func validateFilter(f Filter) []Issue {
	var issues []Issue
	if _, err := builtin.Lookup(f.Exclude); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "filter.exclude",
			Message:  err.Error(),
		})
	}
	if f.Enabled && len(f.Exclude) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "filter.exclude",
			Message:  "filter is enabled but no exclusions are configured; nothing will be skipped",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "pushgateway":
		if m.PushgatewayURL == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires a URL",
			}}
		}
	case "datadog":
		if m.StatsdAddr == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "metrics.statsd_addr",
				Message:  "datadog backend requires a DogStatsD address",
			}}
		}
	}
	return nil
}

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "duplicate stage id").
			WithSeverity(SeverityFatal).
			WithContext("stage", "style").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "duplicate stage id" {
			t.Errorf("expected message 'duplicate stage id', got %s", err.Message())
		}

		stage, exists := err.Context().GetString("stage")
		if !exists || stage != "style" {
			t.Errorf("expected context stage=style, got %v", stage)
		}
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := ConfigError("empty stage set").Build()
		wrapped := fmt.Errorf("run: %w", err)

		if !HasCategory(wrapped, CategoryConfig) {
			t.Error("expected wrapped error to keep config category")
		}
		if GetSeverity(wrapped) != SeverityFatal {
			t.Errorf("expected fatal severity, got %s", GetSeverity(wrapped))
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		plain := errors.New("boom")
		if GetCategory(plain) != CategoryInternal {
			t.Errorf("expected internal category, got %s", GetCategory(plain))
		}
		if GetSeverity(plain) != SeverityError {
			t.Errorf("expected error severity, got %s", GetSeverity(plain))
		}
	})

	t.Run("WithContext does not mutate the original", func(t *testing.T) {
		base := BuildError("minify failed").WithContext("file", "a.css").Build()
		derived := base.WithContext("stage", "style")

		if _, ok := base.Context().Get("stage"); ok {
			t.Error("original error context was mutated")
		}
		if v, _ := derived.Context().GetString("file"); v != "a.css" {
			t.Errorf("expected derived error to keep file context, got %q", v)
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Wrapping", func(t *testing.T) {
		originalErr := errors.New("permission denied")
		err := WrapError(originalErr, CategoryFileSystem, "remove failed").
			Warning().
			WithContext("path", "dist/a.css").
			Build()

		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}
		if err.Error() != "[filesystem:warning] remove failed: permission denied" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
		}{
			{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal},
			{"ValidationError", ValidationError("test"), CategoryValidation, SeverityFatal},
			{"NotFoundError", NotFoundError("test"), CategoryNotFound, SeverityInfo},
			{"BuildError", BuildError("test"), CategoryBuild, SeverityError},
			{"FileSystemError", FileSystemError("test"), CategoryFileSystem, SeverityError},
			{"CleanupWarning", CleanupWarning("test"), CategoryFileSystem, SeverityWarning},
			{"WatchError", WatchError("test"), CategoryWatch, SeverityError},
			{"NotifyError", NotifyError("test"), CategoryNotify, SeverityWarning},
			{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
			})
		}
	})
}

func TestErrorContext(t *testing.T) {
	ctx1 := ErrorContext{}.Set("key1", "value1").Set("shared", "original")
	ctx2 := ErrorContext{}.Set("key2", "value2").Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	value1, _ := merged.GetString("key1")
	value2, _ := merged.GetString("key2")
	shared, _ := merged.GetString("shared")

	if value1 != "value1" || value2 != "value2" {
		t.Errorf("merge lost keys: %v", merged)
	}
	if shared != "overridden" {
		t.Errorf("expected shared=overridden, got %s", shared)
	}
	if _, ok := ErrorContext(nil).Get("missing"); ok {
		t.Error("expected nil context lookup to miss")
	}
}

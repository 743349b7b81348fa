package errors

import (
	"fmt"
	"testing"
)

func TestAgendaError_Error(t *testing.T) {
	err := &AgendaError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "run not found",
	}

	expected := "NOT_FOUND: run not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("no file was uploaded")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "no file was uploaded" {
		t.Errorf("Message = %q, want %q", err.Message, "no file was uploaded")
	}
}

func TestNewInvalidStructure(t *testing.T) {
	err := NewInvalidStructure("data", "invalid data structure: missing key 'data'")

	if err.Code != ErrInvalidStructure {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidStructure)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Details["missing_key"] != "data" {
		t.Errorf("Details[missing_key] = %v, want %q", err.Details["missing_key"], "data")
	}
}

func TestNewFileNotFound(t *testing.T) {
	err := NewFileNotFound("data/QuadroHorarioAluno.json")

	if err.Code != ErrFileNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrFileNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["path"] != "data/QuadroHorarioAluno.json" {
		t.Errorf("Details[path] = %v", err.Details["path"])
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("01HRUN")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "01HRUN" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "01HRUN")
	}
}

func TestNewPayloadTooLarge(t *testing.T) {
	err := NewPayloadTooLarge(10)

	if err.Code != ErrPayloadTooLarge {
		t.Errorf("Code = %q, want %q", err.Code, ErrPayloadTooLarge)
	}
	if err.Status != 413 {
		t.Errorf("Status = %d, want 413", err.Status)
	}
	if err.Details["max_mb"] != 10 {
		t.Errorf("Details[max_mb] = %v, want 10", err.Details["max_mb"])
	}
}

func TestNewNoValidEntries(t *testing.T) {
	err := NewNoValidEntries(3, 3)

	if err.Code != ErrNoValidEntries {
		t.Errorf("Code = %q, want %q", err.Code, ErrNoValidEntries)
	}
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
	if err.Details["dropped_records"] != 3 {
		t.Errorf("Details[dropped_records] = %v, want 3", err.Details["dropped_records"])
	}
}

func TestNewRateLimited(t *testing.T) {
	err := NewRateLimited("5 per minute")

	if err.Code != ErrRateLimited {
		t.Errorf("Code = %q, want %q", err.Code, ErrRateLimited)
	}
	if err.Status != 429 {
		t.Errorf("Status = %d, want 429", err.Status)
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("database connection failed"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details["internal_error"] != "database connection failed" {
			t.Errorf("Details[internal_error] = %q, want %q", err.Details["internal_error"], "database connection failed")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)

		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details == nil {
			t.Error("Details should not be nil")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		if !Is(NewNotFound("x"), ErrNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		if Is(NewNotFound("x"), ErrInvalidRequest) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if Is(fmt.Errorf("plain error"), ErrNotFound) {
			t.Error("Is() = true, want false for non-AgendaError")
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		wrapped := fmt.Errorf("analyze: %w", NewNoValidEntries(0, 0))
		if !Is(wrapped, ErrNoValidEntries) {
			t.Error("Is() = false, want true for wrapped AgendaError")
		}
	})
}

func TestAs(t *testing.T) {
	t.Run("agenda error passes through", func(t *testing.T) {
		orig := NewInvalidRequest("bad")
		if got := As(fmt.Errorf("ctx: %w", orig)); got != orig {
			t.Errorf("As() = %v, want original error", got)
		}
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := As(fmt.Errorf("boom"))
		if got.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", got.Code, ErrInternal)
		}
	})
}

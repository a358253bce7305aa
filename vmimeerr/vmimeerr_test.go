package vmimeerr

import (
	"errors"
	"testing"
)

func TestCommandErrSeverity_ErrorString(t *testing.T) {
	err := CommandErrSeverity("RCPT TO", "550 no such user", "550 no such user", Permanent)
	want := `command-error("RCPT TO", "550 no such user", permanent)`
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
}

func TestCommandErrSeverity_ScenarioS6(t *testing.T) {
	err := CommandErrSeverity("RCPT TO", "550 no such user", "550 no such user", Permanent)
	if err.Kind != CommandError {
		t.Fatalf("got kind %v", err.Kind)
	}
	if err.Command != "RCPT TO" || err.Severity != Permanent {
		t.Fatalf("got %+v", err)
	}
}

func TestError_Is(t *testing.T) {
	err := New(AuthFailed, "bad credentials")
	if !errors.Is(err, &Error{Kind: AuthFailed}) {
		t.Fatal("expected Is() to match on Kind")
	}
	if errors.Is(err, &Error{Kind: TLSHandshakeFailed}) {
		t.Fatal("expected Is() not to match a different Kind")
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := Wrap(SocketError, "send failed", inner)
	if !errors.Is(wrapped, inner) {
		t.Fatal("expected Unwrap() to expose the inner error")
	}
}

func TestCommandErr_NoSeverityRendersWithoutSeverityForm(t *testing.T) {
	err := CommandErr("LOGIN", "NO invalid credentials", "invalid credentials")
	want := `command-error: invalid credentials: LOGIN ("NO invalid credentials")`
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
}

package apperr

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad input"), KindValidation},
		{"not found", NotFound("missing"), KindNotFound},
		{"authorization", Authorization("nope"), KindAuthorization},
		{"conflict", Conflict("taken"), KindConflict},
		{"unavailable", Unavailable("down"), KindUnavailable},
		{"wrapped keeps kind", fmt.Errorf("create: %w", Conflict("taken")), KindConflict},
		{"plain error", errors.New("boom"), KindInternal},
		{"bad conn", driver.ErrBadConn, KindUnavailable},
		{"conn done", sql.ErrConnDone, KindUnavailable},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindUnavailable},
		{"wrapped net error", fmt.Errorf("query: %w", &net.OpError{Op: "read", Err: errors.New("reset")}), KindUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	err := Conflict("taken")
	if !IsKind(err, KindConflict) {
		t.Error("IsKind should match the carried kind")
	}
	if IsKind(err, KindValidation) {
		t.Error("IsKind should reject a different kind")
	}
	if IsKind(nil, KindInternal) {
		t.Error("nil error carries no kind")
	}
}

func TestNewfMessage(t *testing.T) {
	err := Newf(KindConflict, "Seat %d at %s-%s is already reserved", 4, "09:00", "10:00")
	want := "Seat 4 at 09:00-10:00 is already reserved"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

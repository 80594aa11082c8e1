package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "correct horse") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "wrong horse") {
		t.Error("wrong password accepted")
	}
	if VerifyPassword("not-a-bcrypt-hash", "correct horse") {
		t.Error("garbage hash accepted")
	}
}

func TestHashPasswordCostFallback(t *testing.T) {
	// Out-of-range costs fall back to the bcrypt default instead of
	// erroring or producing a degenerate hash.
	for _, cost := range []int{0, -1, bcrypt.MaxCost + 1} {
		hash, err := HashPassword("pw", cost)
		if err != nil {
			t.Fatalf("HashPassword(cost=%d): %v", cost, err)
		}
		got, err := bcrypt.Cost([]byte(hash))
		if err != nil {
			t.Fatalf("Cost(cost=%d): %v", cost, err)
		}
		if got != bcrypt.DefaultCost {
			t.Errorf("cost %d: hash cost = %d, want default %d", cost, got, bcrypt.DefaultCost)
		}
		if !VerifyPassword(hash, "pw") {
			t.Errorf("cost %d: hash does not verify", cost)
		}
	}
}

package database

import (
	"testing"

	"github.com/campuslab/lab-seat-reservation/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.Config{
		DBUser: "labapp", DBPass: "s3cret",
		DBHost: "db.internal", DBPort: "3306", DBName: "labseats",
	}
	want := "labapp:s3cret@tcp(db.internal:3306)/labseats?charset=utf8mb4&parseTime=true&loc=UTC"
	if got := dsn(cfg); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}

	// Empty password must not leave a dangling colon in the auth part.
	cfg.DBPass = ""
	want = "labapp@tcp(db.internal:3306)/labseats?charset=utf8mb4&parseTime=true&loc=UTC"
	if got := dsn(cfg); got != want {
		t.Errorf("dsn without password = %q, want %q", got, want)
	}
}

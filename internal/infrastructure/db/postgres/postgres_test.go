package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"unique", &pq.Error{Code: "23505"}, true},
		{"wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"fk", &pq.Error{Code: "23503"}, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("isUniqueViolation = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewIDIsOrdered(t *testing.T) {
	prev, err := newID()
	if err != nil {
		t.Fatalf("newID: %v", err)
	}
	for i := 0; i < 100; i++ {
		next, err := newID()
		if err != nil {
			t.Fatalf("newID: %v", err)
		}
		if !isUUID(next) || next <= prev {
			t.Fatalf("ids must be increasing uuids: %s then %s", prev, next)
		}
		prev = next
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, name := range []string{"migrations/000001_init.up.sql", "migrations/000001_init.down.sql"} {
		if _, err := migrationsFS.ReadFile(name); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

package database

import (
	"testing"
)

func TestConvertPlaceholders(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		query  string
		want   string
	}{
		{
			name:   "postgres numbers placeholders",
			driver: "postgres",
			query:  "SELECT id FROM ticket WHERE id = ? AND status = ?",
			want:   "SELECT id FROM ticket WHERE id = $1 AND status = $2",
		},
		{
			name:   "mysql passes through",
			driver: "mysql",
			query:  "SELECT id FROM ticket WHERE id = ?",
			want:   "SELECT id FROM ticket WHERE id = ?",
		},
		{
			name:   "sqlite passes through",
			driver: "sqlite",
			query:  "SELECT id FROM ticket WHERE id = ?",
			want:   "SELECT id FROM ticket WHERE id = ?",
		},
		{
			name:   "no placeholders untouched",
			driver: "postgres",
			query:  "SELECT 1",
			want:   "SELECT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertPlaceholders(tt.driver, tt.query); got != tt.want {
				t.Errorf("ConvertPlaceholders() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Options{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}

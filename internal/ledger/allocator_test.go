package ledger

import (
	"errors"
	"testing"

	"github.com/divvyhq/divvy/internal/money"
)

func TestAllocate(t *testing.T) {
	tests := []struct {
		name         string
		price        string
		participants []string
		want         map[string]string
		wantErr      error
	}{
		{
			name:         "even split",
			price:        "30.00",
			participants: []string{"alice", "bob", "carol"},
			want:         map[string]string{"alice": "10.00", "bob": "10.00", "carol": "10.00"},
		},
		{
			name:         "remainder goes to first participant",
			price:        "10.00",
			participants: []string{"alice", "bob", "carol"},
			want:         map[string]string{"alice": "3.34", "bob": "3.33", "carol": "3.33"},
		},
		{
			name:         "two-way odd cent",
			price:        "0.03",
			participants: []string{"alice", "bob"},
			want:         map[string]string{"alice": "0.02", "bob": "0.01"},
		},
		{
			name:         "single participant gets everything",
			price:        "12.34",
			participants: []string{"alice"},
			want:         map[string]string{"alice": "12.34"},
		},
		{
			name:         "empty participants",
			price:        "10.00",
			participants: nil,
			wantErr:      ErrInvalidSplit,
		},
		{
			name:         "zero price",
			price:        "0.00",
			participants: []string{"alice"},
			wantErr:      ErrInvalidSplit,
		},
		{
			name:         "negative price",
			price:        "-5.00",
			participants: []string{"alice"},
			wantErr:      ErrInvalidSplit,
		},
		{
			name:         "duplicate participant",
			price:        "10.00",
			participants: []string{"alice", "alice"},
			wantErr:      ErrInvalidSplit,
		},
		{
			name:         "blank participant",
			price:        "10.00",
			participants: []string{"alice", ""},
			wantErr:      ErrInvalidSplit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Allocate(money.MustParse(tt.price), tt.participants)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Allocate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Allocate() error = %v", err)
			}

			if len(shares) != len(tt.want) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tt.want))
			}
			sum := money.Zero()
			for user, want := range tt.want {
				got, ok := shares[user]
				if !ok {
					t.Fatalf("no share for %s", user)
				}
				if got.String() != want {
					t.Errorf("share[%s] = %s, want %s", user, got, want)
				}
				sum = sum.Add(got)
			}
			if !sum.Equal(money.MustParse(tt.price)) {
				t.Errorf("shares sum to %s, want %s", sum, tt.price)
			}
		})
	}
}

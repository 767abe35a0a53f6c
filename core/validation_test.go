package core

import (
	"errors"
	"testing"
)

func TestValidateQueueEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *QueueEntry
		wantErr error
	}{
		{
			name:    "valid entry",
			entry:   &QueueEntry{Source: "https://example.com/doc", Priority: 50},
			wantErr: nil,
		},
		{
			name:    "valid entry with zero priority",
			entry:   &QueueEntry{Source: "raw text body", Priority: 0},
			wantErr: nil,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantErr: ErrInvalidQueueEntry,
		},
		{
			name:    "empty source",
			entry:   &QueueEntry{Priority: 10},
			wantErr: ErrEmptySource,
		},
		{
			name:    "priority above range",
			entry:   &QueueEntry{Source: "https://example.com", Priority: 101},
			wantErr: ErrInvalidPriority,
		},
		{
			name:    "negative priority",
			entry:   &QueueEntry{Source: "https://example.com", Priority: -1},
			wantErr: ErrInvalidPriority,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQueueEntry(tt.entry)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateQueueEntry() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateQueueEntry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeTopicKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "already canonical", key: "siemens:drive", want: "siemens:drive"},
		{name: "mixed case and spaces", key: "  Siemens : Drive ", want: "siemens:drive"},
		{name: "multi-word segments", key: "allen  bradley:servo   motor", want: "allen bradley:servo motor"},
		{name: "empty", key: "", wantErr: true},
		{name: "missing category", key: "siemens", wantErr: true},
		{name: "too many segments", key: "a:b:c", wantErr: true},
		{name: "blank vendor", key: " :drive", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTopicKey(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTopicKey) {
					t.Errorf("NormalizeTopicKey(%q) error = %v, want ErrInvalidTopicKey", tt.key, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeTopicKey(%q) unexpected error: %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeTopicKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestClampConfidence(t *testing.T) {
	if got := ClampConfidence(-0.5); got != 0 {
		t.Errorf("ClampConfidence(-0.5) = %g, want 0", got)
	}
	if got := ClampConfidence(1.5); got != 1 {
		t.Errorf("ClampConfidence(1.5) = %g, want 1", got)
	}
	if got := ClampConfidence(0.7); got != 0.7 {
		t.Errorf("ClampConfidence(0.7) = %g, want 0.7", got)
	}
}

func TestValidateAtom(t *testing.T) {
	if err := ValidateAtom(&Atom{Content: "a fact"}); err != nil {
		t.Errorf("unexpected error for valid atom: %v", err)
	}
	if err := ValidateAtom(nil); !errors.Is(err, ErrInvalidAtom) {
		t.Errorf("ValidateAtom(nil) error = %v, want ErrInvalidAtom", err)
	}
	if err := ValidateAtom(&Atom{}); !errors.Is(err, ErrEmptyAtomContent) {
		t.Errorf("ValidateAtom(empty) error = %v, want ErrEmptyAtomContent", err)
	}
}

package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEmails(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "a@x.com", []string{"a@x.com"}},
		{"padded", " a@x.com ,  b@x.com", []string{"a@x.com", "b@x.com"}},
		{"empty_entries", "a@x.com,,  ,b@x.com,", []string{"a@x.com", "b@x.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitEmails(tt.in))
		})
	}
}

func TestMergeEmails(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		incoming []string
		want     string
	}{
		{"into_empty", "", []string{"a@x.com"}, "a@x.com"},
		{"existing_first_new_appended", "b@x.com", []string{"a@x.com", "b@x.com"}, "b@x.com, a@x.com"},
		{"duplicates_dropped", "a@x.com, b@x.com", []string{"b@x.com"}, "a@x.com, b@x.com"},
		{"case_sensitive_dedup", "a@x.com", []string{"A@x.com"}, "a@x.com, A@x.com"},
		{"messy_existing", " b@x.com ,, c@x.com ", []string{"a@x.com"}, "b@x.com, c@x.com, a@x.com"},
		{"nothing_new", "a@x.com", nil, "a@x.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeEmails(tt.existing, tt.incoming))
		})
	}
}

func TestMergeEmails_Idempotent(t *testing.T) {
	once := MergeEmails("b@x.com", []string{"a@x.com"})
	twice := MergeEmails(once, []string{"a@x.com"})
	assert.Equal(t, once, twice)
}

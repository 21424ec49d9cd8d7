package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sharesquad/sharesquad/internal/bridge"
)

func TestChipSummary(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"empty", nil, ""},
		{"one", []string{"Team"}, "  [Team]"},
		{"two", []string{"Team", "Ops"}, "  [Team] [Ops]"},
		{"overflow", []string{"Team", "Ops", "Legal", "HR"}, "  [Team] [Ops] +2"},
		{"long_name_truncated", []string{"a-very-long-group-name-here"}, "  [a-very-long-group…]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chipSummary(tt.names))
		})
	}
}

func TestPermissionKey(t *testing.T) {
	assert.Equal(t, "permissionFull", permissionKey(bridge.PermissionFull))
	assert.Equal(t, "permissionEdit", permissionKey(bridge.PermissionEdit))
	assert.Equal(t, "permissionComment", permissionKey(bridge.PermissionComment))
	assert.Equal(t, "permissionView", permissionKey(bridge.PermissionView))
}

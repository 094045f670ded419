package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		format func(string) string
		name   string
		icon   string
	}{
		{name: "success", format: FormatSuccess, icon: SuccessIcon},
		{name: "error", format: FormatError, icon: ErrorIcon},
		{name: "warning", format: FormatWarning, icon: WarningIcon},
		{name: "info", format: FormatInfo, icon: InfoIcon},
		{name: "title", format: FormatTitle, icon: RulesIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.format("rules saved")
			assert.Contains(t, out, tt.icon)
			assert.Contains(t, out, "rules saved")
		})
	}
}

func TestRenderBox(t *testing.T) {
	out := RenderBox("Dry Run", "  • Matched: 2")
	assert.Contains(t, out, "Dry Run")
	assert.Contains(t, out, "Matched: 2")
}

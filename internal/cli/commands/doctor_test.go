package commands

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/syssam/erdgen/compiler/diag"
)

func TestSeverity(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = noColor })

	tests := []struct {
		kind diag.Kind
		code string
	}{
		{kind: diag.TypeInference, code: "\x1b[33m"},
		{kind: diag.AmbiguousParameter, code: "\x1b[33m"},
		{kind: diag.NameHint, code: "\x1b[35m"},
		{kind: diag.Relationship, code: "\x1b[36m"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := severity(tt.kind)
			assert.Contains(t, got, tt.code)
			assert.Contains(t, got, "["+string(tt.kind)+"]")
		})
	}
}

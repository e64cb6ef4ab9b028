package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstants(t *testing.T) {
	names := []string{
		FieldFile, FieldCount, FieldInputFile, FieldOutputFile,
		FieldMerchant, FieldTemplate, FieldSource, FieldUserID, FieldKind,
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		assert.NotEmpty(t, n)
		assert.False(t, seen[n], "duplicate field name %q", n)
		seen[n] = true
	}
}

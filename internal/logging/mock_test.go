package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger_DerivedLoggersShareEntries(t *testing.T) {
	root := NewMockLogger()
	root.WithField(FieldTemplate, "tesco").Warn("invalid pattern")
	root.WithError(errors.New("boom")).Error("load failed")
	root.Info("ready")

	entries := root.GetEntries()
	require.Len(t, entries, 3)

	v, ok := entries[0].FieldValue(FieldTemplate)
	require.True(t, ok)
	assert.Equal(t, "tesco", v)
	assert.EqualError(t, entries[1].Error, "boom")
	assert.True(t, root.HasEntry("INFO", "ready"))
	assert.Len(t, root.GetEntriesByLevel("WARN"), 1)
}

func TestMockLogger_FieldsDoNotLeakBetweenDerivations(t *testing.T) {
	root := NewMockLogger()
	base := root.WithField("a", 1)
	base.WithField("b", 2).Info("first")
	base.WithField("c", 3).Info("second")

	entries := root.GetEntries()
	require.Len(t, entries, 2)
	_, hasB := entries[1].FieldValue("b")
	assert.False(t, hasB)
}

func TestMockLogger_ZeroValueAndClear(t *testing.T) {
	var m MockLogger
	m.Fatalf("bad %s", "thing")
	assert.True(t, m.HasEntry("FATAL", "bad thing"))

	m.Clear()
	assert.Empty(t, m.GetEntries())
}

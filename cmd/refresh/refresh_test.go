package refresh

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarttax/receipt-ocr/internal/loader"
)

func TestRefreshCommand_Metadata(t *testing.T) {
	assert.Equal(t, "refresh", Cmd.Use)
	assert.Contains(t, Cmd.Short, "Reload")
	assert.Contains(t, Cmd.Long, "--watch")
	assert.NotNil(t, Cmd.RunE)

	watchFlag := Cmd.Flags().Lookup("watch")
	if assert.NotNil(t, watchFlag) {
		assert.Equal(t, "false", watchFlag.DefValue)
	}
}

func TestPrintReport(t *testing.T) {
	report := loader.Report{
		CacheEntries:     1,
		GlobalEntries:    2,
		UserEntries:      3,
		Merchants:        4,
		Terms:            2,
		TemplatesLoaded:  5,
		TemplatesSkipped: 1,
		Duration:         1500 * time.Millisecond,
		Warnings:         []error{errors.New("global: unreachable")},
	}

	var out bytes.Buffer
	require.NoError(t, printReport(&out, report))
	assert.Contains(t, out.String(), "dictionary: 4 merchants, 2 terms (cache 1, global 2, user 3)")
	assert.Contains(t, out.String(), "templates: 5 loaded, 1 skipped")
	assert.Contains(t, out.String(), "warnings: 1")
	assert.Contains(t, out.String(), "duration: 1.5s")
}

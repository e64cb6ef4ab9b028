package dictionary

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
)

func doc(merchants, terms map[string]string) models.DictionaryDocument {
	return models.DictionaryDocument{Merchants: merchants, Terms: terms}
}

func TestApplyCorrections(t *testing.T) {
	d := New(logging.NewMockLogger())
	d.Load(models.DictionaryDocument{}, doc(
		map[string]string{"TESC0": "TESCO"},
		map[string]string{"T0TAL": "TOTAL", "RECIEPT": "RECEIPT"},
	), models.DictionaryDocument{})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "merchant and term", in: "TESC0 EXTRA\nT0TAL RM7.70", want: "TESCO EXTRA\nTOTAL RM7.70"},
		{name: "case insensitive", in: "tesc0 reciept", want: "TESCO RECEIPT"},
		{name: "every occurrence", in: "t0tal T0TAL", want: "TOTAL TOTAL"},
		{name: "no match", in: "AEON BIG", want: "AEON BIG"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.ApplyCorrections(tt.in))
		})
	}
}

func TestApplyCorrections_EmptyDictionaryIsIdentity(t *testing.T) {
	d := New(nil)
	in := "Any (text) with [regex] chars $1.00"
	assert.Equal(t, in, d.ApplyCorrections(in))
}

func TestApplyCorrections_MetaCharactersAreLiteral(t *testing.T) {
	d := New(nil)
	d.Load(doc(nil, map[string]string{"RM.": "RM ", "(M)": "$1"}), models.DictionaryDocument{}, models.DictionaryDocument{})
	assert.Equal(t, "RM 5.00 SDN BHD $1", d.ApplyCorrections("RM.5.00 SDN BHD (M)"))
	assert.Equal(t, "RMX5", d.ApplyCorrections("RMX5"))
}

func TestApplyCorrections_MerchantsBeforeTermsAndLongestFirst(t *testing.T) {
	d := New(nil)
	d.Load(doc(
		map[string]string{"STARBUCKS COFEE": "Starbucks"},
		map[string]string{"COFEE": "COFFEE"},
	), models.DictionaryDocument{}, models.DictionaryDocument{})

	// the merchant pass consumes the whole phrase before the term pass runs
	assert.Equal(t, "Starbucks LATTE COFFEE", d.ApplyCorrections("STARBUCKS COFEE LATTE COFEE"))
}

func TestApplyCorrections_Idempotent(t *testing.T) {
	d := New(nil)
	d.Load(doc(map[string]string{"GUARDlAN": "GUARDIAN"}, map[string]string{"T0TAL": "TOTAL"}),
		models.DictionaryDocument{}, models.DictionaryDocument{})

	once := d.ApplyCorrections("GUARDlAN PHARMACY\nT0TAL 12.00")
	assert.Equal(t, once, d.ApplyCorrections(once))
}

func TestLoad_Precedence(t *testing.T) {
	d := New(nil)
	d.Load(
		doc(map[string]string{"MCD": "McDonald's Local"}, map[string]string{"QTY": "QUANTITY"}),
		doc(map[string]string{"MCD": "McDonald's Global"}, nil),
		doc(map[string]string{"MCD": "McDonald's Mine"}, map[string]string{"": "blank"}),
	)

	snap := d.Snapshot()
	assert.Equal(t, "McDonald's Mine", snap.Merchants["MCD"])
	assert.Equal(t, "QUANTITY", snap.Terms["QTY"])
	_, hasBlank := snap.Terms[""]
	assert.False(t, hasBlank)

	merchants, terms := d.Len()
	assert.Equal(t, 1, merchants)
	assert.Equal(t, 1, terms)
}

func TestLoad_ReplacesPreviousContents(t *testing.T) {
	d := New(nil)
	d.Load(doc(map[string]string{"A1": "A"}, nil), models.DictionaryDocument{}, models.DictionaryDocument{})
	d.Load(doc(map[string]string{"B1": "B"}, nil), models.DictionaryDocument{}, models.DictionaryDocument{})

	snap := d.Snapshot()
	assert.NotContains(t, snap.Merchants, "A1")
	assert.Contains(t, snap.Merchants, "B1")
}

func TestCorrectMerchantName(t *testing.T) {
	d := New(nil)
	d.Load(doc(map[string]string{
		"STARBUCKS COFEE": "Starbucks",
		"TESC0 EXTRA":     "Tesco Extra",
	}, nil), models.DictionaryDocument{}, models.DictionaryDocument{})

	tests := []struct {
		in   string
		want string
	}{
		{in: "STARBUCKS COFEE", want: "Starbucks"},
		{in: "starbucks cofee", want: "Starbucks"},
		{in: "STARBUCKS COFFEE", want: "Starbucks"},  // distance 1
		{in: "STARBUKS COFFE", want: "Starbucks"},    // distance 2
		{in: "STARBUK COFFE", want: "STARBUK COFFE"}, // distance 3, rejected
		{in: "TESCO EXTRA", want: "Tesco Extra"},
		{in: "AEON BIG", want: "AEON BIG"},
		{in: "", want: ""},
		{in: "   ", want: "   "},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, d.CorrectMerchantName(tt.in))
		})
	}
}

func TestCorrectMerchantName_EmptyDictionary(t *testing.T) {
	assert.Equal(t, "TESCO", New(nil).CorrectMerchantName("TESCO"))
}

func TestCorrectMerchantName_Threshold(t *testing.T) {
	d := New(nil, WithThreshold(1))
	d.Load(doc(map[string]string{"TESCO": "Tesco"}, nil), models.DictionaryDocument{}, models.DictionaryDocument{})

	assert.Equal(t, "Tesco", d.CorrectMerchantName("tesco"))
	assert.Equal(t, "TESC0", d.CorrectMerchantName("TESC0"))
	assert.Equal(t, 1, d.Threshold())
	assert.Equal(t, DefaultThreshold, New(nil, WithThreshold(0)).Threshold())
}

func TestCorrectMerchantName_CaseCollidingKeysAreDeterministic(t *testing.T) {
	for i := 0; i < 20; i++ {
		d := New(nil)
		d.Load(doc(map[string]string{"Aeon": "AEON Mall", "AEON": "AEON Big"}, nil),
			models.DictionaryDocument{}, models.DictionaryDocument{})
		// "AEON" < "Aeon", so the later "Aeon" entry owns the lowercased key
		require.Equal(t, "AEON Mall", d.CorrectMerchantName("aeon"))
	}
}

func TestAddCorrection(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("MYT", 8*3600))
	logger := logging.NewMockLogger()
	d := New(logger,
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "corr-1" }),
	)

	record, err := d.AddCorrection("user-1", "GIANT HYPERMARKT", "Giant", models.CorrectionMerchant)
	require.NoError(t, err)
	assert.Equal(t, models.CorrectionRecord{
		ID:            "corr-1",
		UserID:        "user-1",
		OriginalText:  "GIANT HYPERMARKT",
		CorrectedText: "Giant",
		Kind:          models.CorrectionMerchant,
		Timestamp:     fixed.UTC(),
	}, record)

	assert.Equal(t, "Giant", d.CorrectMerchantName("GIANT HYPERMARKET"))
	assert.True(t, logger.HasEntry("INFO", "Correction added"))

	_, err = d.AddCorrection("user-1", "T0TAL", "TOTAL", models.CorrectionTerm)
	require.NoError(t, err)
	assert.Equal(t, "TOTAL 5.00", d.ApplyCorrections("t0tal 5.00"))
}

func TestAddCorrection_DefaultIDIsUUID(t *testing.T) {
	d := New(nil)
	record, err := d.AddCorrection("", "X1", "X", models.CorrectionTerm)
	require.NoError(t, err)
	assert.Len(t, record.ID, 36)
	assert.False(t, record.Timestamp.IsZero())
}

func TestAddCorrection_Invalid(t *testing.T) {
	d := New(nil)
	tests := []struct {
		name                string
		original, corrected string
		kind                models.CorrectionKind
	}{
		{name: "blank original", original: " ", corrected: "X", kind: models.CorrectionTerm},
		{name: "blank corrected", original: "X", corrected: "", kind: models.CorrectionTerm},
		{name: "unknown kind", original: "X", corrected: "Y", kind: "VENDOR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.AddCorrection("u", tt.original, tt.corrected, tt.kind)
			assert.ErrorIs(t, err, ErrInvalidCorrection)
		})
	}
	merchants, terms := d.Len()
	assert.Zero(t, merchants+terms)
}

func TestSnapshotIsACopy(t *testing.T) {
	d := New(nil)
	d.Load(doc(map[string]string{"A1": "A"}, nil), models.DictionaryDocument{}, models.DictionaryDocument{})
	snap := d.Snapshot()
	snap.Merchants["B1"] = "B"
	assert.NotContains(t, d.Snapshot().Merchants, "B1")
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	d := New(nil)
	d.Load(doc(map[string]string{"TESC0": "TESCO"}, nil), models.DictionaryDocument{}, models.DictionaryDocument{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := d.AddCorrection("u", fmt.Sprintf("TERM%d_%d", i, j), "X", models.CorrectionTerm)
				assert.NoError(t, err)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Equal(t, "TESCO EXTRA", d.ApplyCorrections("TESC0 EXTRA"))
				_ = d.CorrectMerchantName("tesc0")
			}
		}()
	}
	wg.Wait()

	_, terms := d.Len()
	assert.Equal(t, 400, terms)
}

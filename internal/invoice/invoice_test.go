package invoice_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/ladeflyt/grunnlag/internal/invoice"
)

func TestGenerate(t *testing.T) {
	inv := Invoice{
		InstallationID:   "inst-1",
		InstallationName: "Sameiet Bakkegata",
		Year:             2023,
		Month:            time.February,
		PricePerKWh:      1.52,
		Sessions: []Session{
			{
				Start:      "2023-02-03T17:00:00+00:00",
				End:        "2023-02-03T19:30:00+00:00",
				DeviceName: "Charger 1",
				Energy:     12.345,
			},
			{
				Start:      "2023-02-14T08:00:00+00:00",
				End:        "2023-02-14T09:15:00+00:00",
				DeviceName: "Charger 2",
				Energy:     7.1,
			},
		},
	}

	pdf, err := Generate(inv)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")), "expected a PDF header")
	assert.Greater(t, len(pdf), 1000)
}

func TestGenerateWithoutSessions(t *testing.T) {
	pdf, err := Generate(Invoice{
		InstallationID: "inst-1",
		Year:           2023,
		Month:          time.July,
		PricePerKWh:    0.9,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")), "expected a PDF header")
}

func TestTotals(t *testing.T) {
	inv := Invoice{
		PricePerKWh: 2,
		Sessions: []Session{
			{Energy: 1.5},
			{Energy: 2.5},
		},
	}

	assert.InDelta(t, 4.0, inv.TotalKWh(), 1e-9)
	assert.InDelta(t, 8.0, inv.TotalCost(), 1e-9)
}

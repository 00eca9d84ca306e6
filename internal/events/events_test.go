package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideLookupIsCaseInsensitive(t *testing.T) {
	e := Event{
		ID:    "ev-1",
		Venue: VenuePolymarket,
		ContractSides: []ContractSide{
			{Name: "YES", Price: 0.6},
			{Name: "NO", Price: 0.4},
		},
	}

	side, ok := e.Side("yes")
	require.True(t, ok)
	assert.Equal(t, 0.6, side.Price)

	_, ok = e.Side("MAYBE")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	e := Event{
		ID:         "ev-1",
		Venue:      VenueKalshi,
		MarketType: MarketBinary,
		ContractSides: []ContractSide{
			{Name: "YES", Price: 0.6},
			{Name: "NO", Price: 0.4},
		},
	}
	assert.NoError(t, e.Validate())

	dup := e
	dup.ContractSides = []ContractSide{
		{Name: "YES", Price: 0.6},
		{Name: "yes", Price: 0.4},
	}
	assert.Error(t, dup.Validate())

	outOfRange := e
	outOfRange.ContractSides = []ContractSide{{Name: "YES", Price: 1.2}}
	assert.Error(t, outOfRange.Validate())

	missing := e
	missing.ID = ""
	assert.Error(t, missing.Validate())
}

func TestIsBinary(t *testing.T) {
	e := Event{MarketType: MarketBinary}
	assert.True(t, e.IsBinary())
	e.MarketType = MarketContinuous
	assert.False(t, e.IsBinary())
}

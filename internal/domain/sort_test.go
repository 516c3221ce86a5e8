package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSort(t *testing.T) {
	for _, s := range AllSorts() {
		got, err := ParseSort(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortRecommended, got)

	_, err = ParseSort("cheapest")
	assert.Error(t, err)
}

func TestSortSpec_JSON(t *testing.T) {
	var body struct {
		Sort SortSpec `json:"sort"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"sort":"price_desc"}`), &body))
	assert.Equal(t, SortPriceDesc, body.Sort)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sort":"price_desc"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"sort":"bogus"}`), &body))
}

func TestSortSpec_Invalid(t *testing.T) {
	s := SortSpec(42)
	assert.False(t, s.Valid())
	assert.Equal(t, "SortSpec(42)", s.String())
	_, err := s.MarshalText()
	assert.Error(t, err)
}

func TestSortOptions(t *testing.T) {
	opts := SortOptions(SortPriceAsc)
	require.Len(t, opts, 5)

	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.Label
		assert.Equal(t, o.Sort == SortPriceAsc, o.Selected)
	}
	assert.Equal(t, []string{
		"Recommended", "A to Z", "Z to A", "Increasing by price", "Decreasing by price",
	}, labels)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "success", PhaseSuccess.String())
	assert.Equal(t, "error", PhaseError.String())
	assert.Equal(t, "unknown", Phase(9).String())
}

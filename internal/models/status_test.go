package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshIntervalTable(t *testing.T) {
	want := []int64{3000, 35000, 180000, 3000, 999999, 999999, 8000, 8000, 8000, 10000, 10000, 100000, 999999, 10000, 999999, 30000, 300000, 300000, 300000}

	statuses := AllOrderStatuses()
	require.Len(t, statuses, len(want))
	for i, s := range statuses {
		assert.Equal(t, time.Duration(want[i])*time.Millisecond, s.RefreshInterval(), s.String())
	}
}

func TestUnknownStatusIsUnbounded(t *testing.T) {
	for _, s := range []OrderStatus{-1, 19, 99} {
		assert.False(t, s.Valid())
		assert.Equal(t, UnboundedInterval, s.RefreshInterval())
		assert.Contains(t, s.String(), "unknown")
	}
}

func TestMakeRequestNullFields(t *testing.T) {
	req := MakeRequest{
		Type:     OrderTypeBuy,
		Currency: 1,
		HasRange: true,
		BondSize: decimal.RequireFromString("3.5"),
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Contains(t, body, "amount")
	assert.Nil(t, body["amount"])
	assert.Nil(t, body["premium"])
	assert.Nil(t, body["satoshis"])
	assert.Equal(t, "3.5", body["bond_size"])
}

func TestOrderWithoutStatusDecodesUnknown(t *testing.T) {
	for _, body := range []string{`{"id":42,"is_participant":false}`, `{"id":42,"status":null}`} {
		var o Order
		require.NoError(t, json.Unmarshal([]byte(body), &o), body)
		assert.Equal(t, int64(42), o.ID)
		assert.Equal(t, OrderStatusUnknown, o.Status, body)
		assert.Equal(t, UnboundedInterval, o.Status.RefreshInterval())
	}

	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"status":0}`), &o))
	assert.Equal(t, OrderStatusWaitingMakerBond, o.Status)

	var book []Order
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1,"status":1},{"id":2}]`), &book))
	assert.Equal(t, OrderStatusPublic, book[0].Status)
	assert.Equal(t, OrderStatusUnknown, book[1].Status)
}

package orders

import (
	"io"
	"net/http"
	"net/http/httptest"
	"robosync/internal/clock"
	"robosync/internal/coordinator/rest"
	"robosync/internal/logger"
	"robosync/internal/models"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderWithoutStatusIsNotPolled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":42,"is_participant":false}`)
	}))
	t.Cleanup(srv.Close)

	client, err := rest.New(srv.URL, rest.Options{}, logger.Discard())
	require.NoError(t, err)

	fake := clock.NewFake()
	e := New(Config{}, client, logger.Discard(), Options{Clock: fake})
	t.Cleanup(e.Close)

	e.Track(42)
	e.wg.Wait()

	view := e.View()
	require.NotNil(t, view.Order)
	assert.Equal(t, models.OrderStatusUnknown, view.Order.Status)
	assert.Zero(t, view.NextPoll)
	assert.Empty(t, fake.Pending())

	fake.Advance(models.UnboundedInterval)
	e.wg.Wait()
	assert.Equal(t, int32(1), hits.Load())
}

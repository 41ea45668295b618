package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDelivery(t *testing.T) {
	var got uint
	handler := func(ctx context.Context, reportID uint) error {
		got = reportID
		return nil
	}

	err := handleDelivery([]byte(`{"report_id": 42, "requested_at": "2026-03-14T12:00:00Z"}`), handler)
	require.NoError(t, err)
	assert.Equal(t, uint(42), got)
}

func TestHandleDeliveryMalformed(t *testing.T) {
	handler := func(ctx context.Context, reportID uint) error {
		t.Fatal("handler must not run for malformed messages")
		return nil
	}

	assert.Error(t, handleDelivery([]byte(`not json`), handler))
	assert.Error(t, handleDelivery([]byte(`{"requested_at": "2026-03-14T12:00:00Z"}`), handler), "missing report id")
}

func TestHandleDeliveryPropagatesHandlerError(t *testing.T) {
	handler := func(ctx context.Context, reportID uint) error {
		return assert.AnError
	}

	err := handleDelivery([]byte(`{"report_id": 7}`), handler)
	assert.ErrorIs(t, err, assert.AnError)
}

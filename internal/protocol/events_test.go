package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	testCases := []struct {
		name      string
		frame     string
		expected  Kind
		expectErr bool
	}{
		{
			name:     "Status vending",
			frame:    `{"type":"status","status":"vending","items":[3],"message":"Dispensing...","elapsedTime":1.2,"timestamp":"2026-08-24T10:00:00Z"}`,
			expected: KindStatus,
		},
		{
			name:     "Status idle",
			frame:    `{"type":"status","status":"idle"}`,
			expected: KindStatus,
		},
		{
			name:     "Vend response success",
			frame:    `{"type":"vend-response","success":true,"items":[1,2],"estimatedTime":8}`,
			expected: KindVendResponse,
		},
		{
			name:     "Vend response failure",
			frame:    `{"type":"vend-response","success":false,"message":"Machine busy"}`,
			expected: KindVendResponse,
		},
		{
			name:     "Vend complete",
			frame:    `{"type":"vend-complete","status":"idle","message":"Vending complete","vendedItems":[3],"timestamp":"2026-08-24T10:00:09Z"}`,
			expected: KindVendComplete,
		},
		{
			name:     "Backend status",
			frame:    `{"type":"backend-status","message":"connected"}`,
			expected: KindBackendStatus,
		},
		{
			name:     "Unrecognized type",
			frame:    `{"type":"firmware-update","version":"2.1"}`,
			expected: KindUnknown,
		},
		{
			name:     "Missing type",
			frame:    `{"status":"idle"}`,
			expected: KindUnknown,
		},
		{
			name:      "Malformed JSON",
			frame:     `{"type":"status",`,
			expectErr: true,
		},
		{
			name:      "Non-object frame",
			frame:     `"hello"`,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tc.frame))
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ev.Kind())
			assert.Equal(t, []byte(tc.frame), ev.Raw(), "raw frame must be preserved verbatim")
		})
	}
}

func TestDecodeEventFields(t *testing.T) {
	t.Run("status carries message and items", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"status","status":"vending","items":[7],"message":"Working"}`))
		require.NoError(t, err)
		status, ok := ev.(StatusEvent)
		require.True(t, ok)
		assert.Equal(t, "vending", status.Status)
		assert.Equal(t, []int{7}, status.Items)
		assert.Equal(t, "Working", status.Message)
	})

	t.Run("vend-response failure keeps reason", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"vend-response","success":false,"message":"Out of stock"}`))
		require.NoError(t, err)
		resp, ok := ev.(VendResponseEvent)
		require.True(t, ok)
		assert.False(t, resp.Success)
		assert.Equal(t, "Out of stock", resp.Message)
	})

	t.Run("vend-complete lists dispensed slots", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"vend-complete","message":"Done","vendedItems":[1,4]}`))
		require.NoError(t, err)
		complete, ok := ev.(VendCompleteEvent)
		require.True(t, ok)
		assert.Equal(t, []int{1, 4}, complete.VendedItems)
	})

	t.Run("unknown preserves original type tag", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"telemetry"}`))
		require.NoError(t, err)
		unknown, ok := ev.(UnknownEvent)
		require.True(t, ok)
		assert.Equal(t, "telemetry", unknown.Type)
	})
}

func TestEncodeBackendStatus(t *testing.T) {
	frame, err := EncodeBackendStatus("connected")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"backend-status","message":"connected"}`, string(frame))

	ev, err := DecodeEvent(frame)
	require.NoError(t, err)
	assert.Equal(t, KindBackendStatus, ev.Kind())
}

package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testSecret = "whsec_test"

func signedHeader(payload []byte, at time.Time, secret string) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, ComputeSignature(payload, ts, secret))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.updated"}`)
	now := time.Now()

	t.Run("valid signature passes", func(t *testing.T) {
		header := signedHeader(payload, now, testSecret)
		assert.NoError(t, VerifySignature(payload, header, testSecret, now))
	})

	t.Run("missing header", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature(payload, "", testSecret, now), ErrMissingSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		header := signedHeader(payload, now, "whsec_other")
		assert.ErrorIs(t, VerifySignature(payload, header, testSecret, now), ErrBadSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := signedHeader(payload, now, testSecret)
		tampered := []byte(`{"id":"evt_2","type":"invoice.updated"}`)
		assert.ErrorIs(t, VerifySignature(tampered, header, testSecret, now), ErrBadSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		header := signedHeader(payload, now.Add(-10*time.Minute), testSecret)
		assert.ErrorIs(t, VerifySignature(payload, header, testSecret, now), ErrStaleTimestamp)
	})

	t.Run("garbage header", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature(payload, "nonsense", testSecret, now), ErrBadSignature)
	})

	t.Run("second v1 candidate verifies during rotation", func(t *testing.T) {
		ts := now.Unix()
		header := fmt.Sprintf("t=%d,v1=%s,v1=%s",
			ts, ComputeSignature(payload, ts, "whsec_old"), ComputeSignature(payload, ts, testSecret))
		assert.NoError(t, VerifySignature(payload, header, testSecret, now))
	})
}

package kvstore

import (
	"testing"
	"time"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PebbleStore)(nil)
	_ Store = (*RedisStore)(nil)
)

func TestRecordCodec(t *testing.T) {
	expiresAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	record := encodeRecord([]byte("payload"), expiresAt)
	value, gotExpiry, err := decodeRecord(record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(value) != "payload" {
		t.Errorf("unexpected value: %s", value)
	}
	if !gotExpiry.Equal(expiresAt) {
		t.Errorf("expiry mismatch: got %v want %v", gotExpiry, expiresAt)
	}
}

func TestRecordCodecNoExpiry(t *testing.T) {
	record := encodeRecord([]byte("payload"), time.Time{})
	value, expiry, err := decodeRecord(record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(value) != "payload" {
		t.Errorf("unexpected value: %s", value)
	}
	if !expiry.IsZero() {
		t.Errorf("expected zero expiry, got %v", expiry)
	}
}

func TestRecordCodecEmptyValue(t *testing.T) {
	record := encodeRecord(nil, time.Time{})
	value, _, err := decodeRecord(record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(value) != 0 {
		t.Errorf("expected empty value, got %q", value)
	}
}

func TestDecodeRecordTooShort(t *testing.T) {
	if _, _, err := decodeRecord([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for short record")
	}
}

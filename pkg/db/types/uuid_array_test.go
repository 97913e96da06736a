package dbtypes

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDArrayRoundTrip(t *testing.T) {
	ids := UUIDArray{uuid.New(), uuid.New()}

	value, err := ids.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var scanned UUIDArray
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(scanned) != 2 || scanned[0] != ids[0] || scanned[1] != ids[1] {
		t.Fatalf("round trip mismatch: %v vs %v", scanned, ids)
	}
}

func TestUUIDArrayScanEmpty(t *testing.T) {
	var scanned UUIDArray
	if err := scanned.Scan("{}"); err != nil {
		t.Fatalf("scan empty literal: %v", err)
	}
	if len(scanned) != 0 {
		t.Fatalf("expected empty array, got %v", scanned)
	}

	if err := scanned.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if len(scanned) != 0 {
		t.Fatalf("expected empty array for nil, got %v", scanned)
	}
}

func TestUUIDArrayScanRejectsGarbage(t *testing.T) {
	var scanned UUIDArray
	if err := scanned.Scan("{not-a-uuid}"); err == nil {
		t.Fatal("expected parse error for malformed uuid")
	}
}

func TestUUIDArrayContains(t *testing.T) {
	target := uuid.New()
	arr := UUIDArray{uuid.New(), target}

	if !arr.Contains(target) {
		t.Fatal("expected membership")
	}
	if arr.Contains(uuid.New()) {
		t.Fatal("unexpected membership")
	}
	if (UUIDArray{}).Contains(target) {
		t.Fatal("empty array should contain nothing")
	}
}

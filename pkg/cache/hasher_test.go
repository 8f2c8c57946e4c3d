package cache

import "testing"

func TestSegmentKeyStable(t *testing.T) {
	a := SegmentKey(30.5427, -97.5467, 30.5127, -97.6780)
	b := SegmentKey(30.5427, -97.5467, 30.5127, -97.6780)
	if a != b {
		t.Fatalf("expected stable key, got %s != %s", a, b)
	}
}

func TestSegmentKeyRoundsJitter(t *testing.T) {
	a := SegmentKey(30.54270001, -97.5467, 30.5127, -97.6780)
	b := SegmentKey(30.54270002, -97.5467, 30.5127, -97.6780)
	if a != b {
		t.Fatalf("expected jitter below precision to collapse to same key")
	}
}

func TestSegmentKeyDiffers(t *testing.T) {
	a := SegmentKey(30.5427, -97.5467, 30.5127, -97.6780)
	b := SegmentKey(30.5427, -97.5467, 30.6127, -97.6780)
	if a == b {
		t.Fatalf("expected distinct keys for distinct destinations")
	}
}

func TestAdapterKeyNamespaced(t *testing.T) {
	a := AdapterKey("primary_geocoder", "geocode", "DMV Austin")
	b := AdapterKey("secondary_places", "geocode", "DMV Austin")
	if a == b {
		t.Fatalf("expected adapter namespace to separate identical queries")
	}
	if a[:len("primary_geocoder")] != "primary_geocoder" {
		t.Fatalf("expected key to be prefixed with adapter name, got %s", a)
	}
}

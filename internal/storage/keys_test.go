package storage

import (
	"testing"
	"time"
)

func TestMakeKeyFormat(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 22, 3, 7*int(time.Millisecond), time.UTC)

	key := MakeKey(at, "photo.png", CategoryProcessed)
	want := "2024-05-01_10-22-03_007Z_processed_photo.png"
	if key != want {
		t.Fatalf("expected %s, got %s", want, key)
	}
}

func TestMakeKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, loc)

	key := MakeKey(at, "photo.png", CategoryOriginal)
	want := "2024-05-01_10-00-00_000Z_original_photo.png"
	if key != want {
		t.Fatalf("expected %s, got %s", want, key)
	}
}

func TestMakeKeyDistinctAcrossCategoriesAndFilenames(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 22, 3, 0, time.UTC)

	original := MakeKey(at, "photo.png", CategoryOriginal)
	processed := MakeKey(at, "photo.png", CategoryProcessed)
	other := MakeKey(at, "other.png", CategoryProcessed)

	if original == processed {
		t.Fatal("expected category to separate keys from the same tick")
	}
	if processed == other {
		t.Fatal("expected filename to separate keys from the same tick")
	}
}

func TestURLFor(t *testing.T) {
	c := &Client{publicBaseURL: publicBaseURL(Config{Bucket: "brandflow-images"})}
	got := c.URLFor("2024-05-01_10-22-03_000Z_processed_photo.png")
	want := "https://brandflow-images.s3.amazonaws.com/2024-05-01_10-22-03_000Z_processed_photo.png"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	c = &Client{publicBaseURL: publicBaseURL(Config{Bucket: "b", PublicBaseURL: "http://localhost:9000/brandflow/"})}
	if got := c.URLFor("k.png"); got != "http://localhost:9000/brandflow/k.png" {
		t.Fatalf("unexpected custom base url result: %s", got)
	}
}

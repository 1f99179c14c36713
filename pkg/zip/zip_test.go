package zip

import (
	"fmt"
	"testing"
)

func TestExtractAssetsRoundTripSortedByName(t *testing.T) {
	archive := ArchiveAssets([]Asset{
		{Filename: "slides/slide-02.png", Data: []byte("two")},
		{Filename: "slides/slide-01.png", Data: []byte("one")},
		{Filename: "slides/.DS_Store", Data: []byte("junk")},
	})
	assets, err := ExtractAssets(archive, 0)
	if err != nil {
		t.Fatalf("ExtractAssets() error: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("assets = %d, want 2", len(assets))
	}
	if assets[0].Filename != "slide-01.png" || string(assets[0].Data) != "one" {
		t.Fatalf("assets[0] = %+v", assets[0])
	}
	if assets[1].Filename != "slide-02.png" || assets[1].MIME != "image/png" {
		t.Fatalf("assets[1] = %+v", assets[1])
	}
}

func TestExtractAssetsEnforcesEntryLimit(t *testing.T) {
	archive := ArchiveAssets([]Asset{{Filename: "big.png", Data: make([]byte, 64)}})
	if _, err := ExtractAssets(archive, 10); err == nil {
		t.Fatalf("expected size limit error")
	}
}

func TestExtractAssetsRejectsGarbage(t *testing.T) {
	if _, err := ExtractAssets([]byte("not a zip"), 0); err == nil {
		t.Fatalf("expected error for invalid archive")
	}
}

func TestExtractAssetsOrdersNumbersByValue(t *testing.T) {
	var in []Asset
	for i := 12; i >= 1; i-- {
		in = append(in, Asset{Filename: fmt.Sprintf("slide%d.png", i), Data: []byte{byte(i)}})
	}
	assets, err := ExtractAssets(ArchiveAssets(in), 0)
	if err != nil {
		t.Fatalf("ExtractAssets() error: %v", err)
	}
	for i, asset := range assets {
		if want := fmt.Sprintf("slide%d.png", i+1); asset.Filename != want {
			t.Fatalf("assets[%d] = %s, want %s", i, asset.Filename, want)
		}
	}
}

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"slide2.png", "slide10.png", true},
		{"slide10.png", "slide2.png", false},
		{"slide-02.png", "slide-10.png", true},
		{"slide-2.png", "slide-02.png", true},
		{"a.png", "b.png", true},
		{"slide1", "slide1.png", true},
		{"same", "same", false},
	}
	for _, tc := range tests {
		if got := NaturalLess(tc.a, tc.b); got != tc.want {
			t.Fatalf("NaturalLess(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

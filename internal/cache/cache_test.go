package cache

import (
	"testing"

	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/transform"
)

func TestTransformCacheRoundTrip(t *testing.T) {
	c := NewSet()
	hash := ContentHash([]byte("const x = 1"))
	fp := OptionsFingerprint(transform.Options{Loader: config.LoaderTS})

	if _, ok := c.Transform.Get(hash, fp); ok {
		t.Fatal("expected miss before Put")
	}
	want := transform.Result{Code: "const x = 1;"}
	c.Transform.Put(hash, fp, want)
	got, ok := c.Transform.Get(hash, fp)
	if !ok || got.Code != want.Code {
		t.Fatalf("got %+v, ok=%v", got, ok)
	}
}

func TestOptionsFingerprintDiffersOnDefine(t *testing.T) {
	a := OptionsFingerprint(transform.Options{Define: map[string]string{"X": "1"}})
	b := OptionsFingerprint(transform.Options{Define: map[string]string{"X": "2"}})
	if a == b {
		t.Fatal("fingerprints should differ when define values differ")
	}
}

func TestOptionsFingerprintOrderIndependent(t *testing.T) {
	a := OptionsFingerprint(transform.Options{Define: map[string]string{"A": "1", "B": "2"}})
	b := OptionsFingerprint(transform.Options{Define: map[string]string{"B": "2", "A": "1"}})
	if a != b {
		t.Fatal("fingerprint must not depend on map iteration order")
	}
}

func TestTransformCacheInvalidate(t *testing.T) {
	c := NewSet()
	hash := ContentHash([]byte("const x = 1"))
	fp := OptionsFingerprint(transform.Options{})
	c.Transform.Put(hash, fp, transform.Result{Code: "x"})
	c.Transform.Invalidate(hash)
	if _, ok := c.Transform.Get(hash, fp); ok {
		t.Fatal("expected entry gone after Invalidate")
	}
}

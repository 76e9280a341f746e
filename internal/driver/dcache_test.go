package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"

	"weft/internal/diag"
	"weft/internal/project"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := project.HashString("k")
	in := &DiskPayload{
		Rel:      "src/Counter.tsx",
		FileHash: project.HashString("file"),
		Server:   []byte("export function renderCounter() {}\n"),
		Client:   []byte("export function initCounter() {}\n"),
		Diagnostics: []CachedDiagnostic{
			{Code: uint16(diag.GenListWithoutKey), Severity: uint8(diag.SevWarning), Start: 3, End: 9, Message: "no key"},
		},
	}
	if err := c.Put(key, in); err != nil {
		t.Fatalf("put: %v", err)
	}

	var out DiskPayload
	ok, err := c.Get(key, &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(in, &out); diff != "" {
		t.Fatalf("payload (-put +get):\n%s", diff)
	}

	ok, err = c.Get(project.HashString("other"), &out)
	if ok || err != nil {
		t.Fatalf("unknown key: ok=%v err=%v", ok, err)
	}
}

func TestDiskCacheRejectsForeignEntries(t *testing.T) {
	c, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	old := project.HashString("old")
	p := c.pathFor(old)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := msgpack.Marshal(&DiskPayload{Schema: diskCacheSchemaVersion + 1, Rel: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	var out DiskPayload
	if ok, err := c.Get(old, &out); ok || err != nil {
		t.Fatalf("other schema: ok=%v err=%v", ok, err)
	}

	bad := project.HashString("bad")
	p = c.pathFor(bad)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte{0xc1, 0xff}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(bad, &out); err == nil {
		t.Fatalf("corrupt entry must fail to decode")
	}
}

func TestDropAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := OpenDiskCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(project.HashString("k"), &DiskPayload{Rel: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("cache dir still exists (err=%v)", err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("dropping a missing cache: %v", err)
	}
}

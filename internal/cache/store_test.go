package cache

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/partons-hub/partons/internal/format"
	"github.com/partons-hub/partons/internal/resource"
)

func TestCacheWriteAndRead(t *testing.T) {
	c := newTestCache(t)
	r := resource.New(resource.Info("FOO"), resource.Regular)

	if c.Exists(r) {
		t.Fatalf("resource should not exist before write")
	}
	entry, err := c.Write(context.Background(), r, []byte("payload"))
	if err != nil {
		t.Fatalf("write error: %v", err)
	}
	if entry.Size != int64(len("payload")) || entry.Digest == "" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Path != filepath.Join(c.Root(), "FOO", "info.yaml") {
		t.Fatalf("unexpected entry path %s", entry.Path)
	}
	if !c.Exists(r) {
		t.Fatalf("resource should exist after write")
	}

	body, err := c.Read(context.Background(), r)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(body) != "payload" {
		t.Fatalf("cached payload mismatch: %s", body)
	}

	if _, err := c.Write(context.Background(), r, []byte("second")); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	body, _ = c.Read(context.Background(), r)
	if string(body) != "second" {
		t.Fatalf("overwrite not visible: %s", body)
	}
}

func TestCacheDigestDependsOnContent(t *testing.T) {
	c := newTestCache(t)
	a, err := c.Write(context.Background(), resource.New(resource.Index(), resource.Regular), []byte("a"))
	if err != nil {
		t.Fatalf("write a: %v", err)
	}
	b, err := c.Write(context.Background(), resource.New(resource.Index(), resource.Original), []byte("b"))
	if err != nil {
		t.Fatalf("write b: %v", err)
	}
	if a.Digest == b.Digest {
		t.Fatalf("different payloads share digest %s", a.Digest)
	}
}

func TestCacheReadMissing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Read(context.Background(), resource.New(resource.Index(), resource.Regular))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheIgnoresDirectories(t *testing.T) {
	c := newTestCache(t)
	r := resource.New(resource.Info("FOO"), resource.Regular)

	if err := os.MkdirAll(filepath.Join(c.Root(), "FOO", "info.yaml"), 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	if c.Exists(r) {
		t.Fatalf("directory must not count as cached")
	}
	if _, err := c.Read(context.Background(), r); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for directory, got %v", err)
	}
}

func TestNewRequiresDataPath(t *testing.T) {
	if _, err := New("", "lhapdf"); !errors.Is(err, ErrCacheUnavailable) {
		t.Fatalf("expected ErrCacheUnavailable, got %v", err)
	}
	if _, err := New(t.TempDir(), "../escape"); err == nil {
		t.Fatalf("expected invalid registry error")
	}
}

func TestCacheSets(t *testing.T) {
	c := newTestCache(t)

	sets, err := c.Sets()
	if err != nil {
		t.Fatalf("sets on missing root: %v", err)
	}
	if len(sets) != 0 {
		t.Fatalf("expected no sets, got %v", sets)
	}

	for _, name := range []string{"ZED", "ALPHA", "MID"} {
		if _, err := c.Write(context.Background(), resource.New(resource.Info(name), resource.Regular), []byte("x")); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if _, err := c.Write(context.Background(), resource.New(resource.Index(), resource.Regular), []byte("0 ALPHA 1")); err != nil {
		t.Fatalf("write index: %v", err)
	}

	sets, err = c.Sets()
	if err != nil {
		t.Fatalf("sets: %v", err)
	}
	want := []string{"ALPHA", "MID", "ZED"}
	if fmt.Sprint(sets) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, sets)
	}
}

func TestCacheUnpackLegacySet(t *testing.T) {
	c := newTestCache(t)
	archive := buildArchive(t, map[string]string{
		"FOO/FOO.info":     "SetDesc: d\nAuthors: a\n",
		"FOO/FOO_0000.dat": "{}\n---\n",
		"FOO/FOO_0001.dat": "{}\n---\n",
		"FOO/.keep":        "",
	})

	r := resource.New(resource.Set("FOO"), resource.Original)
	out, err := c.Unpack(context.Background(), r, format.Legacy, archive)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if !bytes.Equal(out, archive) {
		t.Fatalf("unpack must return the archive bytes unchanged")
	}

	for _, data := range []resource.Data{resource.Info("FOO"), resource.Member("FOO", 0), resource.Member("FOO", 1)} {
		if !c.Exists(resource.New(data, resource.Original)) {
			t.Fatalf("expected original %s to be unpacked", data)
		}
		if c.Exists(resource.New(data, resource.Regular)) {
			t.Fatalf("unpack must not create regular %s", data)
		}
	}

	body, err := c.Read(context.Background(), resource.New(resource.Info("FOO"), resource.Original))
	if err != nil || string(body) != "SetDesc: d\nAuthors: a\n" {
		t.Fatalf("unexpected unpacked info %q (%v)", body, err)
	}
}

func TestCacheUnpackRejectsUnrecognizedEntry(t *testing.T) {
	c := newTestCache(t)
	archive := buildArchive(t, map[string]string{
		"FOO/FOO.info": "SetDesc: d\n",
		"FOO/README":   "not a member",
	})

	_, err := c.Unpack(context.Background(), resource.New(resource.Set("FOO"), resource.Original), format.Legacy, archive)
	var unrecognized *format.UnrecognizedEntryError
	if !errors.As(err, &unrecognized) {
		t.Fatalf("expected UnrecognizedEntryError, got %v", err)
	}
	if unrecognized.Entry != "FOO/README" {
		t.Fatalf("unexpected entry %q", unrecognized.Entry)
	}
}

func TestCacheUnpackPassesThroughNonSets(t *testing.T) {
	c := newTestCache(t)
	in := []byte("not an archive")
	out, err := c.Unpack(context.Background(), resource.New(resource.Info("FOO"), resource.Original), format.Legacy, in)
	if err != nil || !bytes.Equal(in, out) {
		t.Fatalf("expected pass-through, got %q (%v)", out, err)
	}
	if _, err := c.Unpack(context.Background(), resource.New(resource.Set("FOO"), resource.Original), format.Legacy, in); err == nil {
		t.Fatalf("expected gzip error for set")
	}
}

func TestCacheConcurrentWritesSamePath(t *testing.T) {
	c := newTestCache(t)
	r := resource.New(resource.Member("FOO", 3), resource.Regular)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := c.Write(context.Background(), r, bytes.Repeat([]byte{byte('a' + i)}, 4096)); err != nil {
				t.Errorf("write %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	body, err := c.Read(context.Background(), r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(body) != 4096 || !bytes.Equal(body, bytes.Repeat(body[:1], 4096)) {
		t.Fatalf("torn write detected")
	}
	if len(c.locks) != 0 {
		t.Fatalf("entry locks leaked: %d", len(c.locks))
	}
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), "test")
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return c
}

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	if err := tw.WriteHeader(&tar.Header{Name: "FOO/", Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
		t.Fatalf("tar dir: %v", err)
	}
	for name, body := range files {
		if err := tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(body))}); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatalf("tar body: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

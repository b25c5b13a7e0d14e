package credentials

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeExtractor struct {
	browser string
	cookies map[string]string
	err     error
	calls   int
}

func (f *fakeExtractor) Browser() string { return f.browser }

func (f *fakeExtractor) Extract() (map[string]string, error) {
	f.calls++
	return f.cookies, f.err
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	return NewStore(path, nil)
}

func TestStoreSaveAndLookup(t *testing.T) {
	store := newTestStore(t)
	cookies := map[string]string{"SESSDATA": "abc", "bili_jct": "def"}

	store.Save("firefox", cookies)

	got, ok := store.Lookup("firefox")
	if !ok {
		t.Fatal("expected cache hit after save")
	}
	if got["SESSDATA"] != "abc" || got["bili_jct"] != "def" {
		t.Fatalf("unexpected cookies %v", got)
	}

	// Reload from disk and confirm persistence plus owner-only permissions.
	reloaded := NewStore(store.path, nil)
	if _, ok := reloaded.Lookup("firefox"); !ok {
		t.Fatal("expected cache hit after reload")
	}
	info, err := os.Stat(store.path)
	if err != nil {
		t.Fatalf("stat cache file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("cache file should be owner-only, got %v", info.Mode().Perm())
	}
}

func TestStoreLookupExpired(t *testing.T) {
	store := newTestStore(t)
	store.Save("firefox", map[string]string{"SESSDATA": "abc"})

	// Push the clock past the TTL. Expiry is evaluated at read time.
	store.now = func() time.Time { return time.Now().Add(TTL + time.Hour) }
	if _, ok := store.Lookup("firefox"); ok {
		t.Fatal("expected expired record to miss")
	}
}

func TestStoreLookupJustUnderTTL(t *testing.T) {
	store := newTestStore(t)
	store.Save("chromium", map[string]string{"SESSDATA": "abc"})

	store.now = func() time.Time { return time.Now().Add(TTL - time.Hour) }
	if _, ok := store.Lookup("chromium"); !ok {
		t.Fatal("record inside the TTL should hit")
	}
}

func TestCookiesPrefersCache(t *testing.T) {
	store := newTestStore(t)
	store.Save("firefox", map[string]string{"SESSDATA": "cached"})

	extractor := &fakeExtractor{browser: "firefox", cookies: map[string]string{"SESSDATA": "fresh"}}
	cookies, err := store.Cookies("firefox", extractor, false)
	if err != nil {
		t.Fatalf("Cookies returned error: %v", err)
	}
	if cookies["SESSDATA"] != "cached" {
		t.Fatalf("expected cached cookies, got %v", cookies)
	}
	if extractor.calls != 0 {
		t.Fatalf("extractor should not run on cache hit, ran %d times", extractor.calls)
	}
}

func TestCookiesForceRefresh(t *testing.T) {
	store := newTestStore(t)
	store.Save("firefox", map[string]string{"SESSDATA": "cached"})

	extractor := &fakeExtractor{browser: "firefox", cookies: map[string]string{"SESSDATA": "fresh"}}
	cookies, err := store.Cookies("firefox", extractor, true)
	if err != nil {
		t.Fatalf("Cookies returned error: %v", err)
	}
	if cookies["SESSDATA"] != "fresh" {
		t.Fatalf("force refresh should bypass the cache, got %v", cookies)
	}
	if extractor.calls != 1 {
		t.Fatalf("expected one extraction, got %d", extractor.calls)
	}

	// The refreshed record replaces the cached one.
	got, ok := store.Lookup("firefox")
	if !ok || got["SESSDATA"] != "fresh" {
		t.Fatalf("refreshed record not persisted: %v ok=%v", got, ok)
	}
}

func TestCookiesEmptyExtraction(t *testing.T) {
	store := newTestStore(t)
	extractor := &fakeExtractor{browser: "chromium", cookies: map[string]string{}}

	cookies, err := store.Cookies("chromium", extractor, false)
	if err != nil {
		t.Fatalf("empty extraction should not error: %v", err)
	}
	if len(cookies) != 0 {
		t.Fatalf("expected no cookies, got %v", cookies)
	}
	if _, ok := store.Lookup("chromium"); ok {
		t.Fatal("empty extraction must not create a record")
	}
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)
	store.Save("firefox", map[string]string{"SESSDATA": "abc"})

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, ok := store.Lookup("firefox"); ok {
		t.Fatal("expected miss after clear")
	}
	if _, err := os.Stat(store.path); !os.IsNotExist(err) {
		t.Fatal("cache file should be removed")
	}
}

func TestCookieJarFormat(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()

	path, err := store.CookieJar(dir, "firefox", map[string]string{
		"SESSDATA": "abc",
		"bili_jct": "def",
	})
	if err != nil {
		t.Fatalf("CookieJar returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read jar: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Netscape HTTP Cookie File\n") {
		t.Fatalf("missing Netscape header:\n%s", content)
	}
	if !strings.Contains(content, ".bilibili.com\tTRUE\t/\tTRUE\t") {
		t.Fatalf("missing cookie line fields:\n%s", content)
	}
	if !strings.Contains(content, "\tSESSDATA\tabc\n") || !strings.Contains(content, "\tbili_jct\tdef\n") {
		t.Fatalf("missing cookies:\n%s", content)
	}

	// Second call reuses the materialized file.
	again, err := store.CookieJar(dir, "firefox", map[string]string{"SESSDATA": "abc"})
	if err != nil {
		t.Fatalf("CookieJar second call: %v", err)
	}
	if again != path {
		t.Fatalf("expected jar reuse, got %q then %q", path, again)
	}
}

func TestAuthRequired(t *testing.T) {
	if !AuthRequired(OpFetchSubtitles) {
		t.Fatal("subtitle fetches need credentials")
	}
	if !AuthRequired(OpBatchExport) {
		t.Fatal("batch exports need credentials")
	}
	if AuthRequired(OpCorrectionRetry) {
		t.Fatal("correction retries do not touch the platform")
	}
}

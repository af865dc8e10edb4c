package storage

import (
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func cookieNames(cookies []*http.Cookie) []string {
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	return names
}

func TestBoltJarPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.db")
	jar, err := openBolt(path, normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}

	u := mustURL(t, "https://api.example.com/v1/login")
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "abc"}})
	if err := jar.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	jar, err = openBolt(path, normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer jar.Close()

	got := jar.Cookies(mustURL(t, "https://api.example.com/v1/users"))
	if len(got) != 1 || got[0].Name != "session" || got[0].Value != "abc" {
		t.Fatalf("unexpected cookies after reopen: %#v", got)
	}
	if got := jar.Cookies(mustURL(t, "https://api.example.com/other")); len(got) != 0 {
		t.Fatalf("cookie leaked outside its default path: %v", cookieNames(got))
	}
	if got := jar.Cookies(mustURL(t, "https://www.example.com/v1/users")); len(got) != 0 {
		t.Fatalf("host-only cookie leaked to sibling host: %v", cookieNames(got))
	}
}

func TestBoltJarMatchingRules(t *testing.T) {
	jar, err := openBolt(filepath.Join(t.TempDir(), "cookies.db"), normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer jar.Close()

	u := mustURL(t, "https://api.example.com/")
	jar.SetCookies(u, []*http.Cookie{
		{Name: "shared", Value: "1", Domain: ".example.com", Path: "/"},
		{Name: "deep", Value: "2", Path: "/v1"},
		{Name: "secure", Value: "3", Path: "/", Secure: true},
		{Name: "suffix", Value: "4", Domain: "com", Path: "/"},
		{Name: "foreign", Value: "5", Domain: "other.org", Path: "/"},
	})

	got := cookieNames(jar.Cookies(mustURL(t, "https://api.example.com/v1/items")))
	if len(got) != 3 || got[0] != "deep" {
		t.Fatalf("unexpected https cookies %v", got)
	}

	got = cookieNames(jar.Cookies(mustURL(t, "http://www.example.com/")))
	if len(got) != 1 || got[0] != "shared" {
		t.Fatalf("unexpected cookies for sibling host %v", got)
	}
}

func TestBoltJarExpiresAndDeletes(t *testing.T) {
	jar, err := openBolt(filepath.Join(t.TempDir(), "cookies.db"), Options{
		SessionTTL:      time.Minute,
		CleanupInterval: time.Second,
		Logger:          nopLogger{},
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer jar.Close()

	now := time.Now()
	jar.now = func() time.Time { return now }

	u := mustURL(t, "http://localhost:8080/")
	jar.SetCookies(u, []*http.Cookie{
		{Name: "short", Value: "1", MaxAge: 5},
		{Name: "session", Value: "2"},
	})
	if got := jar.Cookies(u); len(got) != 2 {
		t.Fatalf("expected two cookies, got %v", cookieNames(got))
	}

	now = now.Add(10 * time.Second)
	if got := cookieNames(jar.Cookies(u)); len(got) != 1 || got[0] != "session" {
		t.Fatalf("expected max-age cookie to expire, got %v", got)
	}

	jar.SetCookies(u, []*http.Cookie{{Name: "session", MaxAge: -1}})
	if got := jar.Cookies(u); len(got) != 0 {
		t.Fatalf("expected deleted cookie to be gone, got %v", cookieNames(got))
	}

	now = now.Add(2 * time.Minute)
	jar.maybeCleanupExpired(now)
	var remaining int
	if err := jar.db.View(func(tx *bolt.Tx) error {
		remaining = tx.Bucket([]byte(cookieBucket)).Stats().KeyN
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected cleanup to purge expired cookies, %d left", remaining)
	}
}

func TestNewJarSupportsNoopAndMemory(t *testing.T) {
	u := mustURL(t, "http://example.com/")

	jar, err := NewJar("none", "", Options{})
	if err != nil {
		t.Fatalf("NewJar none: %v", err)
	}
	jar.SetCookies(u, []*http.Cookie{{Name: "a", Value: "1"}})
	if got := jar.Cookies(u); len(got) != 0 {
		t.Fatalf("noop jar returned cookies %v", cookieNames(got))
	}

	jar, err = NewJar("memory", "", Options{})
	if err != nil {
		t.Fatalf("NewJar memory: %v", err)
	}
	defer jar.Close()
	jar.SetCookies(u, []*http.Cookie{{Name: "a", Value: "1"}})
	if got := jar.Cookies(u); len(got) != 1 {
		t.Fatalf("memory jar lost cookie: %v", cookieNames(got))
	}
}

func TestNewJarRejectsUnknownType(t *testing.T) {
	if _, err := NewJar("redis", "", Options{}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	if _, err := NewJar("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected missing path error")
	}
}

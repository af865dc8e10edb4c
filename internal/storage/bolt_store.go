package storage

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/net/publicsuffix"
)

const (
	cookieBucket = "cookies"
	keySep       = "\x00"
)

// storedCookie is the on-disk form of one cookie.
type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	HostOnly bool      `json:"host_only"`
	Path     string    `json:"path"`
	Secure   bool      `json:"secure"`
	Expires  time.Time `json:"expires"`
	Created  time.Time `json:"created"`
}

// boltJar persists cookies in BoltDB so sessions survive process restarts.
type boltJar struct {
	db              *bolt.DB
	log             Logger
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	sessionTTL      time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Jar.
func openBolt(path string, opts Options) (*boltJar, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cookieBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	jar := &boltJar{
		db:              db,
		log:             opts.Logger,
		sessionTTL:      opts.SessionTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	jar.lastCleanup.Store(jar.now().Unix())
	return jar, nil
}

// Close closes the BoltDB store.
func (b *boltJar) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SetCookies stores cookies received from u, deleting those that are expired.
func (b *boltJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if b == nil || b.db == nil || u == nil || len(cookies) == 0 {
		return
	}
	host, ok := canonicalHost(u)
	if !ok {
		return
	}
	now := b.now()
	b.maybeCleanupExpired(now)

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(cookieBucket))
		if bucket == nil {
			return fmt.Errorf("cookie bucket missing")
		}
		for _, c := range cookies {
			sc, ok := b.newStoredCookie(host, u, c, now)
			if !ok {
				continue
			}
			key := cookieKey(sc)
			if !sc.Expires.After(now) {
				if err := bucket.Delete(key); err != nil {
					return err
				}
				continue
			}
			if prev := bucket.Get(key); prev != nil {
				var old storedCookie
				if json.Unmarshal(prev, &old) == nil {
					sc.Created = old.Created
				}
			}
			raw, err := json.Marshal(sc)
			if err != nil {
				return err
			}
			if err := bucket.Put(key, raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.log.WarnObj("cookie store write failed", "cookie_store", map[string]any{"host": host, "error": err.Error()})
	}
}

// Cookies returns the unexpired cookies to send to u, longest path first.
func (b *boltJar) Cookies(u *url.URL) []*http.Cookie {
	if b == nil || b.db == nil || u == nil {
		return nil
	}
	host, ok := canonicalHost(u)
	if !ok {
		return nil
	}
	now := b.now()
	b.maybeCleanupExpired(now)

	https := u.Scheme == "https"
	path := u.Path
	if path == "" {
		path = "/"
	}

	var matched []storedCookie
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(cookieBucket))
		if bucket == nil {
			return fmt.Errorf("cookie bucket missing")
		}
		return bucket.ForEach(func(_, v []byte) error {
			var sc storedCookie
			if err := json.Unmarshal(v, &sc); err != nil {
				return nil
			}
			if !sc.Expires.After(now) || (sc.Secure && !https) {
				return nil
			}
			if !domainMatch(sc, host) || !pathMatch(sc.Path, path) {
				return nil
			}
			matched = append(matched, sc)
			return nil
		})
	})
	if err != nil {
		b.log.WarnObj("cookie store read failed", "cookie_store", map[string]any{"host": host, "error": err.Error()})
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if len(matched[i].Path) != len(matched[j].Path) {
			return len(matched[i].Path) > len(matched[j].Path)
		}
		return matched[i].Created.Before(matched[j].Created)
	})
	out := make([]*http.Cookie, 0, len(matched))
	for _, sc := range matched {
		out = append(out, &http.Cookie{Name: sc.Name, Value: sc.Value})
	}
	return out
}

func (b *boltJar) newStoredCookie(host string, u *url.URL, c *http.Cookie, now time.Time) (storedCookie, bool) {
	if c == nil || c.Name == "" {
		return storedCookie{}, false
	}
	sc := storedCookie{
		Name:    c.Name,
		Value:   c.Value,
		Secure:  c.Secure,
		Path:    c.Path,
		Created: now,
	}

	domain := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Domain), "."))
	switch {
	case domain == "" || domain == host:
		sc.Domain, sc.HostOnly = host, domain == ""
	case net.ParseIP(host) != nil:
		return storedCookie{}, false
	case !strings.HasSuffix(host, "."+domain):
		return storedCookie{}, false
	default:
		if ps, _ := publicsuffix.PublicSuffix(domain); ps == domain {
			return storedCookie{}, false
		}
		sc.Domain = domain
	}

	if sc.Path == "" || sc.Path[0] != '/' {
		sc.Path = defaultPath(u.Path)
	}

	switch {
	case c.MaxAge < 0:
		sc.Expires = time.Time{}
	case c.MaxAge > 0:
		sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
	case !c.Expires.IsZero():
		sc.Expires = c.Expires
	default:
		sc.Expires = now.Add(b.sessionTTL)
	}
	return sc, true
}

// maybeCleanupExpired removes expired cookies on a fixed cadence to avoid unbounded growth.
func (b *boltJar) maybeCleanupExpired(now time.Time) {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(cookieBucket))
		if bucket == nil {
			return fmt.Errorf("cookie bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var sc storedCookie
			if json.Unmarshal(v, &sc) != nil || !sc.Expires.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		b.log.WarnObj("cookie cleanup failed", "cookie_store", map[string]any{"error": err.Error()})
		return
	}
	b.lastCleanup.Store(now.Unix())
}

func cookieKey(sc storedCookie) []byte {
	return []byte(sc.Domain + keySep + sc.Path + keySep + sc.Name)
}

func canonicalHost(u *url.URL) (string, bool) {
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	return host, host != ""
}

func domainMatch(sc storedCookie, host string) bool {
	if sc.Domain == host {
		return true
	}
	return !sc.HostOnly && strings.HasSuffix(host, "."+sc.Domain)
}

func pathMatch(cookiePath, reqPath string) bool {
	if cookiePath == reqPath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}

// defaultPath is the directory of the request path.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"bilitext/internal/fileutil"
	"bilitext/internal/logging"
)

// TTL is how long a cached credential record stays usable. Platform session
// cookies rot on roughly this horizon, so anything older is re-extracted.
const TTL = 30 * 24 * time.Hour

// Record is one browser's cached cookie set.
type Record struct {
	Cookies   map[string]string `json:"cookies"`
	Timestamp time.Time         `json:"timestamp"`
}

// Extractor pulls fresh cookies out of a browser profile. Implementations
// return an empty map when the browser has no usable session, not an error.
type Extractor interface {
	Browser() string
	Extract() (map[string]string, error)
}

// Store provides thread-safe access to the credential cache file. If path is
// empty the store is non-functional and every lookup misses.
type Store struct {
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	records map[string]Record
	// jars maps browser name to a materialized Netscape cookie file so
	// repeated downloader invocations share one file per browser.
	jars map[string]string
}

// NewStore creates a credential store backed by the given JSON file. The file
// is created lazily on first save.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "credentials")

	s := &Store{
		path:    path,
		logger:  logger,
		now:     time.Now,
		records: make(map[string]Record),
		jars:    make(map[string]string),
	}

	if path == "" {
		return s
	}

	if err := s.load(); err != nil {
		logger.Warn("failed to load credential cache",
			logging.Error(err),
			logging.String("path", path))
	}

	return s
}

// Lookup returns the cached cookies for a browser when a fresh record exists.
// Expiry is evaluated here, at read time; stale records simply miss.
func (s *Store) Lookup(browser string) (map[string]string, bool) {
	browser = strings.TrimSpace(browser)
	if browser == "" || s.path == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, found := s.records[browser]
	if !found || len(record.Cookies) == 0 {
		return nil, false
	}
	if s.now().Sub(record.Timestamp) > TTL {
		s.logger.Debug("credential record expired",
			logging.String("browser", browser),
			logging.String("cached_at", record.Timestamp.Format(time.RFC3339)))
		return nil, false
	}
	return cloneCookies(record.Cookies), true
}

// Save stores cookies for a browser and persists the cache. Persistence
// failures are logged rather than raised: the cookies remain usable in memory
// for the rest of the run.
func (s *Store) Save(browser string, cookies map[string]string) {
	browser = strings.TrimSpace(browser)
	if browser == "" || len(cookies) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[browser] = Record{
		Cookies:   cloneCookies(cookies),
		Timestamp: s.now(),
	}
	delete(s.jars, browser)

	if s.path == "" {
		return
	}
	if err := s.persist(); err != nil {
		s.logger.Warn("failed to persist credential cache",
			logging.Error(err),
			logging.String("path", s.path))
	}
}

// Cookies resolves cookies for a browser: cache first, then the extractor.
// forceRefresh skips the cache and overwrites the record with whatever the
// extractor finds.
func (s *Store) Cookies(browser string, extractor Extractor, forceRefresh bool) (map[string]string, error) {
	browser = strings.TrimSpace(browser)
	if browser == "" {
		return nil, errors.New("browser name required")
	}

	if !forceRefresh {
		if cookies, ok := s.Lookup(browser); ok {
			s.logger.Debug("using cached credentials", logging.String("browser", browser))
			return cookies, nil
		}
	}

	if extractor == nil {
		return nil, fmt.Errorf("no extractor available for browser %q", browser)
	}
	cookies, err := extractor.Extract()
	if err != nil {
		return nil, fmt.Errorf("extract cookies from %s: %w", browser, err)
	}
	if len(cookies) == 0 {
		return nil, nil
	}

	s.Save(browser, cookies)
	s.logger.Info("extracted fresh credentials",
		logging.String("browser", browser),
		logging.Int("cookie_count", len(cookies)))
	return cookies, nil
}

// Clear drops every cached record and removes the cache file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]Record)
	s.jars = make(map[string]string)

	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential cache: %w", err)
	}
	return nil
}

// Browsers lists the browsers with cached records, fresh or stale, sorted by
// name. Used by the cookies CLI command to report cache state.
func (s *Store) Browsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Record returns the raw cached record for a browser without TTL filtering.
func (s *Store) Record(browser string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, found := s.records[strings.TrimSpace(browser)]
	if !found {
		return Record{}, false
	}
	record.Cookies = cloneCookies(record.Cookies)
	return record, true
}

// CookieJar materializes cookies as a Netscape-format file under dir for
// tools that read --cookies files. The file is written once per browser and
// reused until the record is refreshed.
func (s *Store) CookieJar(dir, browser string, cookies map[string]string) (string, error) {
	browser = strings.TrimSpace(browser)
	if browser == "" {
		return "", errors.New("browser name required")
	}
	if len(cookies) == 0 {
		return "", errors.New("no cookies to materialize")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if path, ok := s.jars[browser]; ok && fileutil.NonEmptyFile(path) {
		return path, nil
	}

	path := filepath.Join(dir, fmt.Sprintf("cookies-%s.txt", browser))
	expiry := s.now().Add(TTL).Unix()

	var builder strings.Builder
	builder.WriteString("# Netscape HTTP Cookie File\n")
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&builder, ".bilibili.com\tTRUE\t/\tTRUE\t%d\t%s\t%s\n", expiry, name, cookies[name])
	}

	if err := fileutil.WriteFileAtomic(path, []byte(builder.String()), 0o600); err != nil {
		return "", fmt.Errorf("write cookie jar: %w", err)
	}
	s.jars[browser] = path
	return path, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read credential cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	records := make(map[string]Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse credential cache: %w", err)
	}
	s.records = records
	return nil
}

// persist writes the full record map, replacing the previous file contents.
// The lock file keeps concurrent CLI invocations from interleaving writes;
// the cache itself is owner-only since it holds session cookies.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential cache: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock credential cache: %w", err)
	}
	defer lock.Unlock()

	return fileutil.WriteFileAtomic(s.path, data, 0o600)
}

func cloneCookies(cookies map[string]string) map[string]string {
	clone := make(map[string]string, len(cookies))
	for name, value := range cookies {
		clone[name] = value
	}
	return clone
}

// Package browser extracts platform cookies from local browser profiles by
// reading their SQLite cookie databases directly.
package browser

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"bilitext/internal/credentials"
	"bilitext/internal/fileutil"
)

// cookieNames are the session cookies the platform API cares about.
var cookieNames = []string{"SESSDATA", "bili_jct", "buvid3"}

// ForName returns an extractor for the named browser.
func ForName(name string) (credentials.Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "firefox":
		return &Firefox{}, nil
	case "chromium":
		return &Chromium{Name: "chromium"}, nil
	case "chrome":
		return &Chromium{Name: "chrome"}, nil
	default:
		return nil, fmt.Errorf("unsupported browser %q (supported: firefox, chromium, chrome)", name)
	}
}

// Firefox reads cookies.sqlite from the most recently used Firefox profile.
type Firefox struct {
	// ProfileDir overrides profile discovery; used by tests.
	ProfileDir string
}

func (f *Firefox) Browser() string { return "firefox" }

func (f *Firefox) Extract() (map[string]string, error) {
	dbPath, err := f.databasePath()
	if err != nil || dbPath == "" {
		return map[string]string{}, err
	}
	return queryCookies(dbPath,
		`SELECT name, value FROM moz_cookies WHERE host LIKE '%bilibili.com' AND name IN (?, ?, ?)`)
}

func (f *Firefox) databasePath() (string, error) {
	if f.ProfileDir != "" {
		return existingPath(filepath.Join(f.ProfileDir, "cookies.sqlite")), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(home, ".mozilla", "firefox", "*", "cookies.sqlite"))
	if err != nil || len(matches) == 0 {
		return "", nil
	}
	// Pick the most recently modified profile; that is the one in active use.
	sort.Slice(matches, func(i, j int) bool {
		left, _ := os.Stat(matches[i])
		right, _ := os.Stat(matches[j])
		if left == nil || right == nil {
			return left != nil
		}
		return left.ModTime().After(right.ModTime())
	})
	return matches[0], nil
}

// Chromium reads the Cookies database of a Chromium-family browser. Values
// stored encrypted (the usual case on desktop Linux) come back empty from the
// plain value column and are skipped, so a Chromium extraction may legitimately
// find nothing even with an active session.
type Chromium struct {
	Name string
	// ProfileDir overrides profile discovery; used by tests.
	ProfileDir string
}

func (c *Chromium) Browser() string {
	if c.Name == "" {
		return "chromium"
	}
	return c.Name
}

func (c *Chromium) Extract() (map[string]string, error) {
	dbPath, err := c.databasePath()
	if err != nil || dbPath == "" {
		return map[string]string{}, err
	}
	return queryCookies(dbPath,
		`SELECT name, value FROM cookies WHERE host_key LIKE '%bilibili.com' AND name IN (?, ?, ?)`)
}

func (c *Chromium) databasePath() (string, error) {
	if c.ProfileDir != "" {
		return existingPath(filepath.Join(c.ProfileDir, "Cookies")), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	configDir := "chromium"
	if c.Browser() == "chrome" {
		configDir = "google-chrome"
	}
	return existingPath(filepath.Join(home, ".config", configDir, "Default", "Cookies")), nil
}

func existingPath(path string) string {
	if fileutil.NonEmptyFile(path) {
		return path
	}
	return ""
}

// queryCookies copies the database aside before opening it, since the browser
// may hold a write lock on the original.
func queryCookies(dbPath, query string) (map[string]string, error) {
	tmpDir, err := os.MkdirTemp("", "bilitext-cookies-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpDB := filepath.Join(tmpDir, filepath.Base(dbPath))
	if err := fileutil.CopyFile(dbPath, tmpDB); err != nil {
		return nil, fmt.Errorf("copy cookie database: %w", err)
	}

	db, err := sql.Open("sqlite", tmpDB)
	if err != nil {
		return nil, fmt.Errorf("open cookie database: %w", err)
	}
	defer db.Close()

	args := make([]any, len(cookieNames))
	for i, name := range cookieNames {
		args[i] = name
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cookies: %w", err)
	}
	defer rows.Close()

	cookies := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan cookie row: %w", err)
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		cookies[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cookie rows: %w", err)
	}
	return cookies, nil
}

package bili

import (
	"errors"
	"net/url"
	"strings"
)

// ExtractBVID returns the BVID from a Bilibili video URL or passes a bare
// BVID through unchanged.
func ExtractBVID(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", errors.New("empty video identifier")
	}
	if hasBVPrefix(identifier) {
		return identifier, nil
	}

	parsed, err := url.Parse(identifier)
	if err != nil {
		return "", errors.New("invalid Bilibili URL or BVID")
	}
	segments := strings.Split(strings.TrimRight(parsed.Path, "/"), "/")
	last := segments[len(segments)-1]
	if hasBVPrefix(last) {
		return last, nil
	}
	return "", errors.New("invalid Bilibili URL or BVID")
}

// VideoURL assembles the canonical watch URL for an identifier. BVIDs become
// full video URLs; anything else is returned as-is.
func VideoURL(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if hasBVPrefix(identifier) && len(identifier) >= 12 {
		return "https://www.bilibili.com/video/" + identifier
	}
	return identifier
}

func hasBVPrefix(value string) bool {
	return strings.HasPrefix(value, "BV") || strings.HasPrefix(value, "bv")
}

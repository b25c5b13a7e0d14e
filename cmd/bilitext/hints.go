package main

import (
	"errors"

	"bilitext/internal/services"
)

// authRemediation returns a next-step suggestion when an operation failed for
// lack of platform credentials, or "" for any other error.
func authRemediation(err error) string {
	if errors.Is(err, services.ErrAuthRequired) {
		return "hint: this content needs member credentials; log in to bilibili.com in your browser, then re-run with --browser firefox (or run 'bilitext cookies extract')"
	}
	return ""
}

// Package venues holds the HTTP connectors that normalize each platform's
// API into canonical events and raw book levels.
package venues

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
)

const maxAttempts = 5

// doJSON runs the request with retry on transient failures and decodes the
// JSON body into dst.
func doJSON(client *http.Client, req *http.Request, dst any) error {
	var attempt int
	for {
		attempt++
		resp, err := client.Do(req)
		if err != nil {
			if shouldRetry(attempt, 0) {
				backoff(attempt)
				continue
			}
			return err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			defer resp.Body.Close()
			return json.NewDecoder(resp.Body).Decode(dst)
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()

		if shouldRetry(attempt, resp.StatusCode) {
			backoff(attempt)
			continue
		}
		return fmt.Errorf("API %s: %s", resp.Status, string(body))
	}
}

func shouldRetry(attempt int, status int) bool {
	if attempt >= maxAttempts {
		return false
	}
	if status == 0 {
		return true
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return true
	}
	return false
}

func backoff(attempt int) {
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	time.Sleep(delay)
}

// splitBookID separates a "<marketID>/<side>" book identifier.
func splitBookID(bookID string) (marketID, side string) {
	if idx := strings.LastIndex(bookID, "/"); idx >= 0 {
		return bookID[:idx], strings.ToLower(bookID[idx+1:])
	}
	return bookID, "yes"
}

// extractEntities pulls capitalized word runs and four-digit years out of
// a title. It is deliberately crude: the overlap strategy only needs
// stable tokens, not real NER.
func extractEntities(title string) []string {
	var entities []string
	var run []string

	flush := func() {
		if len(run) > 0 {
			entities = append(entities, strings.Join(run, " "))
			run = nil
		}
	}

	for i, word := range strings.Fields(title) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed == "" {
			flush()
			continue
		}
		if isYear(trimmed) {
			flush()
			entities = append(entities, trimmed)
			continue
		}
		first := []rune(trimmed)[0]
		// Skip the leading word: titles start capitalized regardless.
		if unicode.IsUpper(first) && i > 0 {
			run = append(run, trimmed)
			continue
		}
		flush()
	}
	flush()
	return entities
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s[0] == '1' || s[0] == '2'
}

func parseRFC3339(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func fptr(v float64) *float64 { return &v }

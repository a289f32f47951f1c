package loader

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// errURIOutsideBase is returned for buffer URIs that leave the directory of their document.
var errURIOutsideBase = errors.New("buffer uri outside the model directory")

// progressChunkSize is the read size between progress notifications.
const progressChunkSize = 32 * 1024

// ProgressFunc receives the number of bytes read so far and the expected total.
// total is 0 when the size is unknown.
type ProgressFunc = func(loaded, total int64)

// isRemoteLocator reports whether the locator is an http(s) URL.
func isRemoteLocator(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// fetch reads the complete resource behind a locator, reporting progress while reading.
// It also returns a resolver for resources referenced relative to the locator.
//
// Parameters:
//   - client: HTTP client used for remote locators
//   - locator: a file path or http(s) URL
//   - onProgress: progress callback (may be nil)
//
// Returns:
//   - []byte: the resource bytes
//   - uriResolver: resolver for relative URIs
//   - error: error if the resource cannot be read
func fetch(client *http.Client, locator string, onProgress ProgressFunc) ([]byte, uriResolver, error) {
	if isRemoteLocator(locator) {
		return fetchHTTP(client, locator, onProgress)
	}
	return fetchFile(locator, onProgress)
}

// fetchFile reads a local file.
func fetchFile(path string, onProgress ProgressFunc) ([]byte, uriResolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var total int64
	if info, err := f.Stat(); err == nil {
		total = info.Size()
	}

	data, err := readWithProgress(f, total, onProgress)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	resolve := func(uri string) ([]byte, error) {
		rel := filepath.FromSlash(uri)
		if !filepath.IsLocal(rel) {
			return nil, fmt.Errorf("%w: %q", errURIOutsideBase, uri)
		}
		return os.ReadFile(filepath.Join(baseDir, rel))
	}
	return data, resolve, nil
}

// fetchHTTP downloads a remote resource.
func fetchHTTP(client *http.Client, rawURL string, onProgress ProgressFunc) ([]byte, uriResolver, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid locator %q: %w", rawURL, err)
	}

	data, err := httpGet(client, base.String(), onProgress)
	if err != nil {
		return nil, nil, err
	}

	resolve := func(uri string) ([]byte, error) {
		ref, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid buffer uri %q: %w", uri, err)
		}
		return httpGet(client, base.ResolveReference(ref).String(), nil)
	}
	return data, resolve, nil
}

// httpGet performs a GET request and reads the body with progress reporting.
func httpGet(client *http.Client, rawURL string, onProgress ProgressFunc) ([]byte, error) {
	resp, err := client.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	data, err := readWithProgress(resp.Body, total, onProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	return data, nil
}

// readWithProgress reads r to EOF in fixed-size chunks, calling onProgress after every chunk.
func readWithProgress(r io.Reader, total int64, onProgress ProgressFunc) ([]byte, error) {
	capacity := total
	if capacity <= 0 {
		capacity = progressChunkSize
	}
	data := make([]byte, 0, capacity)
	chunk := make([]byte, progressChunkSize)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			data = append(data, chunk[:n]...)
			if onProgress != nil {
				onProgress(int64(len(data)), total)
			}
		}
		if err == io.EOF {
			return data, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

package fundgz

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"
)

// diskCache implements a simple disk cache for HTTP responses.
type diskCache struct {
	base http.RoundTripper
	ttl  time.Duration
	dir  string
	now  func() time.Time
}

// RoundTrip implements the http.RoundTripper interface. Entries are keyed by
// the ttl bucket of the current time, so they all expire at the bucket end.
func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	bucket := c.now().Truncate(c.ttl).Unix()
	key := fmt.Sprintf("%d %s %s", bucket, req.Method, req.URL.String())
	key = fmt.Sprintf("fundgz-%x", sha1.Sum([]byte(key)))

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v%v %v", resp.Request.Method, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}

	err = c.put(key, resp)
	if err != nil {
		log.Printf("cache write err (ignored): %v\n", err)
	}
	return resp, nil
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0600)
}

// NewClient returns an http.Client whose requests time out after timeout.
// Successful responses are cached on disk for ttl; ttl <= 0 disables the cache.
func NewClient(ttl, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if ttl > 0 {
		client.Transport = &diskCache{base: http.DefaultTransport, ttl: ttl, dir: os.TempDir(), now: time.Now}
	}
	return client
}

// get performs an HTTP GET request and returns the response body.
func get(ctx context.Context, client *http.Client, addr string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// jwget performs an HTTP GET request and unmarshals the JSON response into data.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	content, err := get(ctx, client, addr, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(content, data)
}

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/etnz/fundsync"
	"github.com/google/subcommands"
)

// setup points the app to a fresh funds file and captures the printed reports.
func setup(t *testing.T, funds ...fundsync.Fund) *bytes.Buffer {
	t.Helper()
	oldFile, oldRaw, oldOut := *fundsFile, *raw, stdout
	*fundsFile = filepath.Join(t.TempDir(), "funds.json")
	*raw = true
	var out bytes.Buffer
	stdout = &out
	t.Cleanup(func() { *fundsFile, *raw, stdout = oldFile, oldRaw, oldOut })

	if len(funds) > 0 {
		if err := EncodeFunds(funds); err != nil {
			t.Fatal(err)
		}
	}
	return &out
}

// run parses args with c's flags and executes it.
func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("%s %v: %v", c.Name(), args, err)
	}
	return c.Execute(context.Background(), fs)
}

func decodeFunds(t *testing.T) fundsync.Funds {
	t.Helper()
	funds, err := DecodeFunds()
	if err != nil {
		t.Fatal(err)
	}
	return funds
}

type record struct {
	RecordID string         `json:"recordId"`
	Fields   map[string]any `json:"fields"`
}

// datasheet is a minimal Vika datasheet served over HTTP.
type datasheet struct {
	mu    sync.Mutex
	rows  []record
	next  int
	calls []string
}

func newDatasheet(t *testing.T, rows ...record) (*datasheet, string) {
	d := &datasheet{rows: rows}
	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)
	return d, srv.URL
}

func (d *datasheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r.Header.Get("Authorization") != "Bearer secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	d.calls = append(d.calls, r.Method)
	var data any = true
	switch r.Method {
	case http.MethodGet:
		data = map[string]any{"records": append([]record{}, d.rows...)}
	case http.MethodPost:
		var body struct{ Records []record }
		json.NewDecoder(r.Body).Decode(&body)
		for _, rec := range body.Records {
			d.next++
			rec.RecordID = "new" + strconv.Itoa(d.next)
			d.rows = append(d.rows, rec)
		}
	case http.MethodPatch:
		var body struct{ Records []record }
		json.NewDecoder(r.Body).Decode(&body)
		for _, u := range body.Records {
			for i := range d.rows {
				if d.rows[i].RecordID == u.RecordID {
					d.rows[i].Fields = u.Fields
				}
			}
		}
	case http.MethodDelete:
		ids := strings.Split(r.URL.Query().Get("recordIds"), ",")
		d.rows = slices.DeleteFunc(d.rows, func(rec record) bool { return slices.Contains(ids, rec.RecordID) })
	}
	json.NewEncoder(w).Encode(map[string]any{"success": true, "code": 200, "message": "SUCCESS", "data": data})
}

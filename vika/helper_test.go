package vika

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeClock never blocks: Sleep advances the time and records the delay.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.sleeps = append(c.sleeps, d)
		c.now = c.now.Add(d)
	}
	return nil
}

// fund is a desired row with a fund code and a net value.
func fund(code, nav string) Fields {
	return Fields{FundCodeField: code, "当前估值": nav}
}

// row is a remote row.
func row(id, code, nav string) RemoteRecord {
	f := Fields{"当前估值": nav}
	if code != "" {
		f[FundCodeField] = code
	}
	return RemoteRecord{RecordID: id, Fields: f}
}

var testSchema = Schema{Fields: []string{FundCodeField, "当前估值"}}

// datasheet is an in-memory Vika datasheet served over HTTP.
type datasheet struct {
	mu    sync.Mutex
	rows  []RemoteRecord
	next  int
	token string

	calls []string       // "METHOD n" with n the number of rows involved
	fail  map[string]int // method -> remaining failures
}

func newDatasheet(t *testing.T, rows ...RemoteRecord) (*datasheet, *httptest.Server) {
	d := &datasheet{rows: rows, token: "secret", fail: map[string]int{}}
	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)
	return d, srv
}

func (d *datasheet) reply(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "code": 200, "message": "SUCCESS", "data": data})
}

func (d *datasheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+d.token {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "code": 401, "message": "invalid token"})
		return
	}
	if !strings.HasSuffix(r.URL.Path, "/datasheets/dst1/records") {
		http.NotFound(w, r)
		return
	}
	if d.fail[r.Method] > 0 {
		d.fail[r.Method]--
		d.calls = append(d.calls, r.Method+" failed")
		http.Error(w, "boom", http.StatusBadGateway)
		return
	}

	switch r.Method {
	case http.MethodGet:
		size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
		num, _ := strconv.Atoi(r.URL.Query().Get("pageNum"))
		start := min((num-1)*size, len(d.rows))
		end := min(start+size, len(d.rows))
		d.calls = append(d.calls, "GET "+strconv.Itoa(end-start))
		page := append([]RemoteRecord{}, d.rows[start:end]...)
		d.reply(w, map[string]any{"records": page, "pageNum": num, "pageSize": size, "total": len(d.rows)})

	case http.MethodPost:
		var body struct {
			Records []struct {
				Fields Fields `json:"fields"`
			} `json:"records"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		d.calls = append(d.calls, "POST "+strconv.Itoa(len(body.Records)))
		var created []RemoteRecord
		for _, rec := range body.Records {
			d.next++
			created = append(created, RemoteRecord{RecordID: "new" + strconv.Itoa(d.next), Fields: rec.Fields})
		}
		d.rows = append(d.rows, created...)
		d.reply(w, map[string]any{"records": created})

	case http.MethodPatch:
		var body struct {
			Records []Update `json:"records"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		d.calls = append(d.calls, "PATCH "+strconv.Itoa(len(body.Records)))
		for _, u := range body.Records {
			for i := range d.rows {
				if d.rows[i].RecordID == u.RecordID {
					d.rows[i].Fields = u.Fields
				}
			}
		}
		d.reply(w, map[string]any{"records": body.Records})

	case http.MethodDelete:
		ids := strings.Split(r.URL.Query().Get("recordIds"), ",")
		d.calls = append(d.calls, "DELETE "+strconv.Itoa(len(ids)))
		d.rows = slices.DeleteFunc(d.rows, func(rec RemoteRecord) bool { return slices.Contains(ids, rec.RecordID) })
		d.reply(w, true)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// byKey returns the current rows grouped by fund code.
func (d *datasheet) byKey() map[string][]RemoteRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := make(map[string][]RemoteRecord)
	for _, rec := range d.rows {
		k := rec.Fields.Key()
		m[k] = append(m[k], rec)
	}
	return m
}

// fakeStore records the calls made by the Executor.
type fakeStore struct {
	calls []string
	sizes []int
	fail  func(op Op, call int) error // may be nil
	n     int
}

func (s *fakeStore) record(op Op, size int) error {
	s.n++
	s.calls = append(s.calls, string(op))
	s.sizes = append(s.sizes, size)
	if s.fail != nil {
		return s.fail(op, s.n)
	}
	return nil
}

func (s *fakeStore) ListRecords(ctx context.Context, pageNum, pageSize int) ([]RemoteRecord, error) {
	return nil, nil
}
func (s *fakeStore) CreateRecords(ctx context.Context, records []Fields) error {
	return s.record(OpCreate, len(records))
}
func (s *fakeStore) UpdateRecords(ctx context.Context, updates []Update) error {
	return s.record(OpUpdate, len(updates))
}
func (s *fakeStore) DeleteRecords(ctx context.Context, ids []string) error {
	return s.record(OpDelete, len(ids))
}

package vika

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

func newTestClient(srv *httptest.Server, token string) *Client {
	return NewClient(srv.Client(), srv.URL, token, "dst1", time.Second, NewPacer(0, nil))
}

func TestClient_RoundTrip(t *testing.T) {
	d, srv := newDatasheet(t, row("r1", "AAA", "1.0"), row("r2", "BBB", "2.0"))
	c := newTestClient(srv, "secret")
	ctx := context.Background()

	rows, err := c.ListRecords(ctx, 1, 1000)
	if err != nil {
		t.Fatalf("ListRecords() unexpected error = %v", err)
	}
	if len(rows) != 2 || rows[0].RecordID != "r1" || rows[0].Fields.Key() != "AAA" {
		t.Errorf("ListRecords() = %+v", rows)
	}

	if err := c.DeleteRecords(ctx, []string{"r1", "r2"}); err != nil {
		t.Fatalf("DeleteRecords() unexpected error = %v", err)
	}
	if err := c.CreateRecords(ctx, []Fields{fund("CCC", "3.0")}); err != nil {
		t.Fatalf("CreateRecords() unexpected error = %v", err)
	}
	if err := c.UpdateRecords(ctx, []Update{{RecordID: "new1", Fields: fund("CCC", "3.5")}}); err != nil {
		t.Fatalf("UpdateRecords() unexpected error = %v", err)
	}

	want := []string{"GET 2", "DELETE 2", "POST 1", "PATCH 1"}
	if !reflect.DeepEqual(d.calls, want) {
		t.Errorf("calls = %v, want %v", d.calls, want)
	}
	got := d.byKey()
	if len(got) != 1 || got["CCC"][0].Fields["当前估值"] != "3.5" {
		t.Errorf("datasheet = %+v", got)
	}
}

func TestClient_Wire(t *testing.T) {
	var method, query, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, query = r.Method, r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		io.WriteString(w, `{"success":true,"code":200,"data":{"records":[]}}`)
	}))
	defer srv.Close()
	c := newTestClient(srv, "secret")
	ctx := context.Background()

	c.DeleteRecords(ctx, []string{"rec1", "rec2"})
	if method != http.MethodDelete || query != "recordIds=rec1,rec2" {
		t.Errorf("DeleteRecords() sent %s ?%s", method, query)
	}

	c.UpdateRecords(ctx, []Update{{RecordID: "rec1", Fields: Fields{FundCodeField: "AAA"}}})
	if want := `{"records":[{"recordId":"rec1","fields":{"基金代码":"AAA"}}]}`; method != http.MethodPatch || body != want {
		t.Errorf("UpdateRecords() sent %s %s, want %s", method, body, want)
	}

	c.CreateRecords(ctx, []Fields{{FundCodeField: "AAA"}})
	if want := `{"records":[{"fields":{"基金代码":"AAA"}}]}`; method != http.MethodPost || body != want {
		t.Errorf("CreateRecords() sent %s %s, want %s", method, body, want)
	}

	c.ListRecords(ctx, 2, 1000)
	if method != http.MethodGet || query != "pageNum=2&pageSize=1000" {
		t.Errorf("ListRecords() sent %s ?%s", method, query)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
		check   func(error) bool
	}{
		{"http 401", http.StatusUnauthorized, `{}`, func(err error) bool { return errors.Is(err, ErrUnauthorized) }},
		{"envelope 401", http.StatusOK, `{"success":false,"code":401,"message":"bad token"}`, func(err error) bool { return errors.Is(err, ErrUnauthorized) }},
		{"http 500", http.StatusInternalServerError, `oops`, func(err error) bool { return retryable(err) }},
		{"envelope failure", http.StatusOK, `{"success":false,"code":429,"message":"too many requests"}`, func(err error) bool { return retryable(err) }},
		{"not json", http.StatusOK, `<html>`, func(err error) bool { return retryable(err) && errors.Is(err, ErrMalformedResponse) }},
		{"missing records", http.StatusOK, `{"success":true,"code":200,"data":{}}`, func(err error) bool { return retryable(err) && errors.Is(err, ErrMalformedResponse) }},
		{"missing data", http.StatusOK, `{"success":true,"code":200}`, func(err error) bool { return retryable(err) && errors.Is(err, ErrMalformedResponse) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.payload)
			}))
			defer srv.Close()

			_, err := newTestClient(srv, "secret").ListRecords(context.Background(), 1, 10)
			if err == nil || !tt.check(err) {
				t.Errorf("ListRecords() error = %v", err)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "secret", "dst1", 50*time.Millisecond, nil)
	err := c.DeleteRecords(context.Background(), []string{"r1"})
	if !retryable(err) {
		t.Errorf("DeleteRecords() error = %v, want a retryable transport error", err)
	}
	if !strings.Contains(err.Error(), "delete") {
		t.Errorf("DeleteRecords() error = %v, want the operation in the message", err)
	}
}

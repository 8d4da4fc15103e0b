package vika

import "context"

// PageFunc fetches one page of rows. Pages are numbered from 1.
type PageFunc func(ctx context.Context, pageNum, pageSize int) ([]RemoteRecord, error)

// Index groups the rows of the datasheet by fund code.
type Index struct {
	keys    []string // in first-seen order
	ids     map[string][]string
	Unkeyed []string // rows without a fund code, never matched
}

// NewIndex indexes rows in the order they were listed.
func NewIndex(rows []RemoteRecord) *Index {
	idx := &Index{ids: make(map[string][]string)}
	for _, row := range rows {
		idx.add(row)
	}
	return idx
}

func (idx *Index) add(row RemoteRecord) {
	key := row.Fields.Key()
	if key == "" {
		idx.Unkeyed = append(idx.Unkeyed, row.RecordID)
		return
	}
	if _, ok := idx.ids[key]; !ok {
		idx.keys = append(idx.keys, key)
	}
	idx.ids[key] = append(idx.ids[key], row.RecordID)
}

// IDs returns the record ids sharing key, in listing order.
func (idx *Index) IDs(key string) []string { return idx.ids[key] }

// Keys returns the indexed fund codes in first-seen order.
func (idx *Index) Keys() []string { return idx.keys }

// Len returns the number of indexed rows, unkeyed included.
func (idx *Index) Len() int {
	n := len(idx.Unkeyed)
	for _, ids := range idx.ids {
		n += len(ids)
	}
	return n
}

// BuildIndex lists every row through fetch and indexes them.
//
// Pages are requested until one comes back shorter than pageSize.
// A pageSize <= 0 means DefaultPageSize.
func BuildIndex(ctx context.Context, fetch PageFunc, pageSize int) (*Index, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	idx := &Index{ids: make(map[string][]string)}
	for page := 1; ; page++ {
		rows, err := fetch(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			idx.add(row)
		}
		if len(rows) < pageSize {
			return idx, nil
		}
	}
}

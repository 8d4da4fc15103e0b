package fundsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FundType tells how a fund is invested, and therefore how it can be estimated.
type FundType string

const (
	ETFLinked FundType = "etf_linked" // feeder fund tracking an ETF
	Bond      FundType = "bond"
	Active    FundType = "active"
)

// Fund is a tracked fund.
type Fund struct {
	Code      string   `json:"code"`
	Name      string   `json:"name,omitempty"`
	Type      FundType `json:"type,omitempty"`
	ETFCode   string   `json:"etf_code,omitempty"`
	ETFName   string   `json:"etf_name,omitempty"`
	IndexCode string   `json:"index_code,omitempty"`
	IndexName string   `json:"index_name,omitempty"`
	Source    string   `json:"source,omitempty"` // where the fund is held, free text
	RiskLevel string   `json:"risk_level,omitempty"`
}

// TypeLabel returns the label of the fund type as displayed in the datasheet.
func (f Fund) TypeLabel() string {
	switch f.Type {
	case ETFLinked:
		return "ETF联接-" + f.ETFName
	case Bond:
		return "债券型"
	default:
		return "主动型"
	}
}

// Funds is the list of tracked funds, in the order they were added.
type Funds []Fund

// Find returns the fund with that code.
func (l Funds) Find(code string) (Fund, bool) {
	i := slices.IndexFunc(l, func(f Fund) bool { return f.Code == code })
	if i < 0 {
		return Fund{}, false
	}
	return l[i], true
}

// Add appends a new fund. The code must be set and not already tracked.
func (l *Funds) Add(f Fund) error {
	f.Code = strings.TrimSpace(f.Code)
	if f.Code == "" {
		return errors.New("fund code is required")
	}
	if _, exists := l.Find(f.Code); exists {
		return fmt.Errorf("fund %s is already tracked", f.Code)
	}
	*l = append(*l, f)
	return nil
}

// Remove removes the fund with that code, and reports if there was one.
func (l *Funds) Remove(code string) bool {
	n := len(*l)
	*l = slices.DeleteFunc(*l, func(f Fund) bool { return f.Code == code })
	return len(*l) != n
}

// Update replaces the fund with the same code.
func (l Funds) Update(f Fund) bool {
	i := slices.IndexFunc(l, func(g Fund) bool { return g.Code == f.Code })
	if i < 0 {
		return false
	}
	l[i] = f
	return true
}

// DecodeFunds reads the list of tracked funds from a JSON file.
// A missing file is an empty list.
func DecodeFunds(path string) (Funds, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Funds{}, nil
	}
	if err != nil {
		return nil, err
	}
	var funds Funds
	if err := json.Unmarshal(content, &funds); err != nil {
		return nil, fmt.Errorf("format error in %q: %w", path, err)
	}
	return funds, nil
}

// EncodeFunds writes the list of tracked funds to a JSON file.
// The file is replaced atomically.
func EncodeFunds(path string, funds Funds) error {
	if funds == nil {
		funds = Funds{}
	}
	content, err := json.MarshalIndent(funds, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after the rename

	if _, err := tmp.Write(append(content, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package vika

import (
	"reflect"
	"testing"
)

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name    string
		desired []Fields
		remote  []RemoteRecord
		want    Plan
	}{
		{
			name:    "empty datasheet",
			desired: []Fields{fund("AAA", "1.2345")},
			want:    Plan{Create: []Fields{fund("AAA", "1.2345")}},
		},
		{
			name:    "changed value",
			desired: []Fields{fund("AAA", "1.3000")},
			remote:  []RemoteRecord{row("r1", "AAA", "1.2345")},
			want:    Plan{Update: []Update{{RecordID: "r1", Fields: fund("AAA", "1.3000")}}},
		},
		{
			name:    "duplicate collapse keeps the first listed",
			desired: []Fields{fund("AAA", "1.3000")},
			remote:  []RemoteRecord{row("r1", "AAA", "1.2"), row("r2", "AAA", "1.1"), row("r3", "AAA", "1.0")},
			want: Plan{
				Update: []Update{{RecordID: "r1", Fields: fund("AAA", "1.3000")}},
				Delete: []string{"r2", "r3"},
			},
		},
		{
			name:    "stale key",
			desired: []Fields{fund("AAA", "1.3000")},
			remote:  []RemoteRecord{row("r1", "BBB", "2.0"), row("r2", "AAA", "1.0"), row("r3", "BBB", "2.1")},
			want: Plan{
				Update: []Update{{RecordID: "r2", Fields: fund("AAA", "1.3000")}},
				Delete: []string{"r1", "r3"},
			},
		},
		{
			name:    "unkeyed rows are always deleted",
			desired: nil,
			remote:  []RemoteRecord{row("r1", "", "2.0"), row("r2", "  ", "1.0")},
			want:    Plan{Delete: []string{"r1", "r2"}},
		},
		{
			name:    "everything at once",
			desired: []Fields{fund("CCC", "3"), fund("AAA", "1")},
			remote: []RemoteRecord{
				row("r1", "", "0"),
				row("r2", "BBB", "2"),
				row("r3", "AAA", "1"),
				row("r4", "AAA", "1"),
				row("r5", "DDD", "4"),
			},
			want: Plan{
				Create: []Fields{fund("CCC", "3")},
				Update: []Update{{RecordID: "r3", Fields: fund("AAA", "1")}},
				Delete: []string{"r4", "r2", "r5", "r1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPlan(tt.desired, NewIndex(tt.remote))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewPlan() =\n%+v\nwant\n%+v", got, tt.want)
			}
		})
	}
}

func TestNewPlan_Deterministic(t *testing.T) {
	desired := []Fields{fund("AAA", "1"), fund("EEE", "5")}
	var remote []RemoteRecord
	for _, code := range []string{"ZZZ", "YYY", "AAA", "XXX", "WWW", "AAA", "VVV"} {
		remote = append(remote, row("id-"+code+"-"+string(rune('a'+len(remote))), code, "0"))
	}
	idx := NewIndex(remote)

	first := NewPlan(desired, idx)
	for i := 0; i < 20; i++ {
		if got := NewPlan(desired, idx); !reflect.DeepEqual(got, first) {
			t.Fatalf("NewPlan() #%d = %+v, want %+v", i, got, first)
		}
	}
}

func TestNewPlan_Disjoint(t *testing.T) {
	desired := []Fields{fund("AAA", "1"), fund("BBB", "2"), fund("CCC", "3")}
	remote := []RemoteRecord{
		row("r1", "AAA", "0"), row("r2", "AAA", "0"), row("r3", "", "0"),
		row("r4", "DDD", "0"), row("r5", "BBB", "0"),
	}
	p := NewPlan(desired, NewIndex(remote))

	updated := make(map[string]bool)
	for _, u := range p.Update {
		updated[u.RecordID] = true
	}
	seen := make(map[string]bool)
	for _, id := range p.Delete {
		if updated[id] {
			t.Errorf("record %s is both updated and deleted", id)
		}
		if seen[id] {
			t.Errorf("record %s is deleted twice", id)
		}
		seen[id] = true
	}
	if got, want := len(p.Create)+len(p.Update), len(desired); got != want {
		t.Errorf("create+update = %d, want %d", got, want)
	}
	if got, want := len(p.Update)+len(p.Delete), len(remote); got != want {
		t.Errorf("update+delete = %d, want %d", got, want)
	}
}

package vika

// Plan lists the operations converging the datasheet to the desired rows.
type Plan struct {
	Create []Fields // desired rows without a match
	Update []Update // first matching row, overwritten with the desired fields
	Delete []string // duplicates, stale and unkeyed rows
}

// IsEmpty reports whether the plan has nothing to do.
func (p Plan) IsEmpty() bool { return len(p.Create)+len(p.Update)+len(p.Delete) == 0 }

// NewPlan diffs the desired rows against the indexed datasheet.
//
// For a key listed several times in the datasheet the first listed row is kept
// and the others are deleted. The result only depends on its inputs.
//
// Desired keys must be non-empty and unique: a repeated key would update the
// same row twice and an empty one is never matched. Schema.Check rejects both,
// and Reconcile and Preview run it before planning.
func NewPlan(desired []Fields, idx *Index) Plan {
	var p Plan
	processed := make(map[string]struct{}, len(desired))
	for _, rec := range desired {
		key := rec.Key()
		processed[key] = struct{}{}
		ids := idx.IDs(key)
		if len(ids) == 0 {
			p.Create = append(p.Create, rec)
			continue
		}
		p.Update = append(p.Update, Update{RecordID: ids[0], Fields: rec})
		p.Delete = append(p.Delete, ids[1:]...)
	}

	for _, key := range idx.Keys() {
		if _, ok := processed[key]; !ok {
			p.Delete = append(p.Delete, idx.IDs(key)...)
		}
	}
	p.Delete = append(p.Delete, idx.Unkeyed...)
	return p
}

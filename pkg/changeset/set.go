package changeset

// Set is an ordered list of change records, for one target
// environment.
type Set struct {
	Environment string
	Records     []Record
}

func (s *Set) Add(r Record) {
	s.Records = append(s.Records, r)
}

func (s Set) Len() int {
	return len(s.Records)
}

func (s Set) Empty() bool {
	return len(s.Records) == 0
}

// Entities returns the distinct entity names, in the order they first
// appear.
func (s Set) Entities() []string {
	var names []string
	seen := map[string]bool{}
	for _, r := range s.Records {
		if !seen[r.Entity] {
			seen[r.Entity] = true
			names = append(names, r.Entity)
		}
	}
	return names
}

// Count returns the number of records with the given action.
func (s Set) Count(a Action) int {
	var n int
	for _, r := range s.Records {
		if r.Action == a {
			n++
		}
	}
	return n
}

// Only returns the records for which keep is true.
func (s Set) Only(keep func(Record) bool) Set {
	out := Set{Environment: s.Environment}
	for _, r := range s.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

package kmerset

// RefKmer records where a reference k-mer came from.
type RefKmer struct {
	ModelPos int
	RefFile  int
	RefSeqID string
}

type refIdentity struct {
	modelPos int
	refFile  int
}

// RefKmerSet is the provenance set stored per k-mer in the hashed index.
// Identity is (ModelPos, RefFile): a second reference sequence with the same
// model position in the same file does not add an entry.
type RefKmerSet struct {
	seen  map[refIdentity]struct{}
	items []RefKmer
}

func NewRefKmerSet() *RefKmerSet {
	return &RefKmerSet{seen: make(map[refIdentity]struct{}, 1)}
}

// Add inserts r unless an entry with the same identity exists. It reports
// whether r was added.
func (s *RefKmerSet) Add(r RefKmer) bool {
	id := refIdentity{r.ModelPos, r.RefFile}
	if _, dup := s.seen[id]; dup {
		return false
	}
	s.seen[id] = struct{}{}
	s.items = append(s.items, r)
	return true
}

func (s *RefKmerSet) Len() int {
	return len(s.items)
}

// Items returns entries in insertion order. The slice must not be modified.
func (s *RefKmerSet) Items() []RefKmer {
	return s.items
}

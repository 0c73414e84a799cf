package lang

// Row binds a version id to one case-folded audio-language code. A version
// carrying several languages contributes one row per code; a version
// without language information contributes a single row with an empty code.
type Row struct {
	ID   string
	Code string
}

// Table is an ordered list of version rows. The last row is conventionally
// the implicit Default row binding the requesting item's own id to the
// Default sentinel; NewTable appends it.
type Table []Row

// NewTable builds a version table from explicit rows plus the implicit
// Default row for the requesting id.
func NewTable(rows []Row, defaultID string) Table {
	table := make(Table, 0, len(rows)+1)
	table = append(table, rows...)
	return append(table, Row{ID: defaultID, Code: DefaultTag})
}

// Codes returns the distinct codes of the table in row order.
func (t Table) Codes() []string {
	var codes []string
	seen := make(map[string]struct{})
	for _, row := range t {
		if _, dup := seen[row.Code]; dup {
			continue
		}
		codes = append(codes, row.Code)
		seen[row.Code] = struct{}{}
	}
	return codes
}

// KeepTableMatches evaluates the selector against a version table and
// returns the ids to fetch: for each group in order, every row whose code
// the group matched contributes its id, deduplicated by first appearance.
// A selector containing '*' keeps every row.
func (s *Selector) KeepTableMatches(t Table) []string {
	var ids []string
	seen := make(map[string]struct{})
	keep := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		ids = append(ids, id)
		seen[id] = struct{}{}
	}

	if s.all {
		for _, row := range t {
			keep(row.ID)
		}
		return ids
	}

	codes := t.Codes()
	for _, group := range s.groups {
		matched := make(map[string]struct{})
		for _, code := range group.Matches(codes) {
			matched[code] = struct{}{}
		}
		for _, row := range t {
			if _, ok := matched[row.Code]; ok {
				keep(row.ID)
			}
		}
	}
	return ids
}

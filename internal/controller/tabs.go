package controller

// Tabs is an ordered set of tab ids with exactly one active member. A tab id
// doubles as the id of the panel it shows.
type Tabs struct {
	ids    []string
	active string
}

// NewTabs activates the first id.
func NewTabs(ids ...string) *Tabs {
	t := &Tabs{ids: append([]string(nil), ids...)}
	if len(ids) > 0 {
		t.active = ids[0]
	}
	return t
}

// Select activates id and reports whether it was a known tab. Unknown ids
// leave the current selection untouched.
func (t *Tabs) Select(id string) bool {
	for _, v := range t.ids {
		if v == id {
			t.active = id
			return true
		}
	}
	return false
}

func (t *Tabs) Active() string { return t.active }

func (t *Tabs) IDs() []string { return append([]string(nil), t.ids...) }

package domain

// User holds identity and the ordered search history, most recent last.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	Searches  []Search
}

// LastSearch returns a pointer into the history, or nil when empty.
func (u *User) LastSearch() *Search {
	if len(u.Searches) == 0 {
		return nil
	}
	return &u.Searches[len(u.Searches)-1]
}

// DropLastSearch removes the most recent search and reports whether there was
// one to remove. It is the only non-append mutation besides TrimHistory.
func (u *User) DropLastSearch() bool {
	if len(u.Searches) == 0 {
		return false
	}
	u.Searches = u.Searches[:len(u.Searches)-1]
	return true
}

// FindSearch locates a past search by id.
func (u *User) FindSearch(id string) *Search {
	for i := range u.Searches {
		if u.Searches[i].ID == id {
			return &u.Searches[i]
		}
	}
	return nil
}

// TrimHistory drops searches that produced no results and keeps at most the
// five most recent of the rest.
func (u *User) TrimHistory() {
	kept := u.Searches[:0]
	for _, s := range u.Searches {
		if len(s.Results) > 0 {
			kept = append(kept, s)
		}
	}
	if len(kept) > 5 {
		kept = kept[len(kept)-5:]
	}
	u.Searches = append([]Search(nil), kept...)
}

package vdbe

// Keylist is a deferred-delete/update row-id buffer (spec §4.5
// "Keylist (deferred-delete buffer)"): UPDATE/DELETE scan matching rows
// into one of these before mutating the table, so the scan itself never
// observes its own writes (spec §4.7's two-pass pattern).
type Keylist struct {
	rowids []int64
	pos    int
}

// KeylistStack is a LIFO of Keylists (ListPush/ListPop), letting a
// trigger body compiled as a subroutine preserve the enclosing scan's
// keylist while it runs its own.
type KeylistStack struct {
	cur   *Keylist
	saved []*Keylist
}

func (s *KeylistStack) current() *Keylist {
	if s.cur == nil {
		s.cur = &Keylist{}
	}
	return s.cur
}

func (s *KeylistStack) Write(rowid int64) {
	k := s.current()
	k.rowids = append(k.rowids, rowid)
}

// Read returns the next row-id and true, or 0 and false once exhausted.
func (s *KeylistStack) Read() (int64, bool) {
	k := s.current()
	if k.pos >= len(k.rowids) {
		return 0, false
	}
	v := k.rowids[k.pos]
	k.pos++
	return v, true
}

func (s *KeylistStack) Rewind() { s.current().pos = 0 }

func (s *KeylistStack) Reset() { s.cur = &Keylist{} }

func (s *KeylistStack) Push() {
	s.saved = append(s.saved, s.cur)
	s.cur = &Keylist{}
}

func (s *KeylistStack) Pop() {
	if n := len(s.saved); n > 0 {
		s.cur = s.saved[n-1]
		s.saved = s.saved[:n-1]
	}
}

package windload

import "sort"

// Session is the floor-selection state of one open project view. The zero
// value is an empty view. Operations return the next state and leave the
// receiver untouched.
type Session struct {
	ProjectID string
	Selected  map[int]struct{}
	Groups    []FloorGroup
}

// NewSession starts a view on a project with the persisted groups and an
// empty selection.
func NewSession(projectID string, groups []FloorGroup) Session {
	return Session{
		ProjectID: projectID,
		Selected:  map[int]struct{}{},
		Groups:    append([]FloorGroup(nil), groups...),
	}
}

// Selection returns the selected indices in ascending order.
func (s Session) Selection() []int {
	out := make([]int, 0, len(s.Selected))
	for idx := range s.Selected {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Toggle flips the selection of one storey row.
func (s Session) Toggle(index int) Session {
	next := s.copySelection()
	if _, ok := next.Selected[index]; ok {
		delete(next.Selected, index)
	} else {
		next.Selected[index] = struct{}{}
	}
	return next
}

// Clear drops the selection and keeps the groups.
func (s Session) Clear() Session {
	return Session{ProjectID: s.ProjectID, Selected: map[int]struct{}{}, Groups: s.Groups}
}

// Group merges the current selection into a new group. On success the
// selection is cleared; on failure the session is returned unchanged.
func (s Session) Group() (Session, error) {
	groups, _, err := GroupSelectedFloors(s.Selection(), s.Groups)
	if err != nil {
		return s, err
	}
	return Session{ProjectID: s.ProjectID, Selected: map[int]struct{}{}, Groups: groups}, nil
}

// Ungroup removes target and clears the selection.
func (s Session) Ungroup(target FloorGroup) (Session, error) {
	groups, ok := UngroupFloors(target, s.Groups)
	if !ok {
		return s, ErrGroupNotFound
	}
	return Session{ProjectID: s.ProjectID, Selected: map[int]struct{}{}, Groups: groups}, nil
}

func (s Session) copySelection() Session {
	sel := make(map[int]struct{}, len(s.Selected)+1)
	for k := range s.Selected {
		sel[k] = struct{}{}
	}
	return Session{ProjectID: s.ProjectID, Selected: sel, Groups: s.Groups}
}

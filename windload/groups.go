// Package windload holds the CFSS wind-load table model: building storeys,
// floor groups that merge consecutive storeys into one displayed row, and the
// formatter that renders the table into the cover-page text field.
package windload

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrSelectionTooSmall       = errors.New("select at least 2 floors")
	ErrSelectionNotConsecutive = errors.New("select consecutive floors only")
	ErrAlreadyGrouped          = errors.New("already grouped, ungroup first")
	ErrGroupNotFound           = errors.New("floor group not found")
	ErrInvalidGroup            = errors.New("invalid floor group")
)

// FloorGroup is a closed interval [FirstIndex, LastIndex] over storey positions.
type FloorGroup struct {
	FirstIndex int `json:"firstIndex" dynamodbav:"firstIndex"`
	LastIndex  int `json:"lastIndex" dynamodbav:"lastIndex"`
}

// Contains reports whether the storey at index belongs to the group.
func (g FloorGroup) Contains(index int) bool {
	return index >= g.FirstIndex && index <= g.LastIndex
}

// Size is the number of storeys covered by the group.
func (g FloorGroup) Size() int {
	return g.LastIndex - g.FirstIndex + 1
}

// FindGroupForFloor returns the first group containing index.
func FindGroupForFloor(groups []FloorGroup, index int) (*FloorGroup, bool) {
	for i := range groups {
		if groups[i].Contains(index) {
			return &groups[i], true
		}
	}
	return nil, false
}

// AreFloorsConsecutive reports whether indices, once sorted, form an unbroken
// run. An empty input is not consecutive.
func AreFloorsConsecutive(indices []int) bool {
	if len(indices) == 0 {
		return false
	}
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1]+1 {
			return false
		}
	}
	return true
}

// GroupSelectedFloors validates selection against the existing groups and
// returns a new slice with the created group appended. existing is never
// modified.
func GroupSelectedFloors(selection []int, existing []FloorGroup) ([]FloorGroup, FloorGroup, error) {
	if len(selection) < 2 {
		return existing, FloorGroup{}, ErrSelectionTooSmall
	}
	if !AreFloorsConsecutive(selection) {
		return existing, FloorGroup{}, ErrSelectionNotConsecutive
	}
	for _, idx := range selection {
		if _, found := FindGroupForFloor(existing, idx); found {
			return existing, FloorGroup{}, ErrAlreadyGrouped
		}
	}

	group := FloorGroup{FirstIndex: selection[0], LastIndex: selection[0]}
	for _, idx := range selection[1:] {
		if idx < group.FirstIndex {
			group.FirstIndex = idx
		}
		if idx > group.LastIndex {
			group.LastIndex = idx
		}
	}

	next := make([]FloorGroup, 0, len(existing)+1)
	next = append(next, existing...)
	next = append(next, group)
	return next, group, nil
}

// UngroupFloors removes the group equal to target. The second return value is
// false when no such group exists.
func UngroupFloors(target FloorGroup, existing []FloorGroup) ([]FloorGroup, bool) {
	next := make([]FloorGroup, 0, len(existing))
	removed := false
	for _, g := range existing {
		if !removed && g == target {
			removed = true
			continue
		}
		next = append(next, g)
	}
	return next, removed
}

// ValidateGroups checks persisted groups against a table of storeyCount rows:
// each group spans at least two storeys inside the table and no storey
// belongs to two groups.
func ValidateGroups(groups []FloorGroup, storeyCount int) error {
	owner := make(map[int]int, storeyCount)
	for i, g := range groups {
		if g.FirstIndex < 0 || g.LastIndex >= storeyCount || g.Size() < 2 {
			return fmt.Errorf("%w: [%d, %d] with %d storeys", ErrInvalidGroup, g.FirstIndex, g.LastIndex, storeyCount)
		}
		for idx := g.FirstIndex; idx <= g.LastIndex; idx++ {
			if other, taken := owner[idx]; taken {
				return fmt.Errorf("%w: storey %d is in groups %d and %d", ErrInvalidGroup, idx, other, i)
			}
			owner[idx] = i
		}
	}
	return nil
}

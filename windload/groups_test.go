package windload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAreFloorsConsecutive(t *testing.T) {
	tests := []struct {
		name    string
		indices []int
		want    bool
	}{
		{"run", []int{2, 3, 4}, true},
		{"unsorted run", []int{4, 2, 3}, true},
		{"gap", []int{2, 4}, false},
		{"empty", []int{}, false},
		{"nil", nil, false},
		{"single", []int{7}, true},
		{"duplicate", []int{2, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AreFloorsConsecutive(tt.indices))
		})
	}
}

func TestAreFloorsConsecutiveDoesNotReorderInput(t *testing.T) {
	in := []int{4, 2, 3}
	AreFloorsConsecutive(in)
	assert.Equal(t, []int{4, 2, 3}, in)
}

func TestFindGroupForFloor(t *testing.T) {
	groups := []FloorGroup{{FirstIndex: 0, LastIndex: 1}, {FirstIndex: 4, LastIndex: 6}}

	g, ok := FindGroupForFloor(groups, 5)
	require.True(t, ok)
	assert.Equal(t, FloorGroup{FirstIndex: 4, LastIndex: 6}, *g)

	_, ok = FindGroupForFloor(groups, 3)
	assert.False(t, ok)
}

func TestGroupSelectedFloors(t *testing.T) {
	groups, created, err := GroupSelectedFloors([]int{3, 1, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, FloorGroup{FirstIndex: 1, LastIndex: 3}, created)
	assert.Equal(t, []FloorGroup{{FirstIndex: 1, LastIndex: 3}}, groups)
}

func TestGroupSelectedFloorsRejections(t *testing.T) {
	existing := []FloorGroup{{FirstIndex: 2, LastIndex: 3}}

	tests := []struct {
		name      string
		selection []int
		wantErr   error
	}{
		{"single floor", []int{5}, ErrSelectionTooSmall},
		{"empty", nil, ErrSelectionTooSmall},
		{"gap", []int{5, 7}, ErrSelectionNotConsecutive},
		{"overlap", []int{3, 4}, ErrAlreadyGrouped},
		{"inside", []int{2, 3}, ErrAlreadyGrouped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := append([]FloorGroup(nil), existing...)
			groups, _, err := GroupSelectedFloors(tt.selection, existing)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, groups)
			assert.Equal(t, before, existing)
		})
	}
}

func TestUngroupFloors(t *testing.T) {
	existing := []FloorGroup{{FirstIndex: 0, LastIndex: 1}, {FirstIndex: 3, LastIndex: 5}}

	next, ok := UngroupFloors(FloorGroup{FirstIndex: 3, LastIndex: 5}, existing)
	require.True(t, ok)
	assert.Equal(t, []FloorGroup{{FirstIndex: 0, LastIndex: 1}}, next)
	assert.Len(t, existing, 2)

	_, ok = UngroupFloors(FloorGroup{FirstIndex: 3, LastIndex: 4}, existing)
	assert.False(t, ok)
}

func TestGroupsNeverOverlapAcrossOperations(t *testing.T) {
	var groups []FloorGroup
	ops := []struct {
		group   []int
		ungroup *FloorGroup
	}{
		{group: []int{0, 1}},
		{group: []int{1, 2}},
		{group: []int{2, 3, 4}},
		{group: []int{4, 5}},
		{ungroup: &FloorGroup{FirstIndex: 0, LastIndex: 1}},
		{group: []int{0, 1}},
		{group: []int{5, 6}},
		{ungroup: &FloorGroup{FirstIndex: 2, LastIndex: 4}},
		{group: []int{1, 2}},
		{group: []int{3, 4}},
	}
	for _, op := range ops {
		if op.ungroup != nil {
			groups, _ = UngroupFloors(*op.ungroup, groups)
		} else {
			groups, _, _ = GroupSelectedFloors(op.group, groups)
		}

		seen := map[int]bool{}
		for _, g := range groups {
			require.LessOrEqual(t, g.FirstIndex, g.LastIndex)
			for i := g.FirstIndex; i <= g.LastIndex; i++ {
				require.False(t, seen[i], "index %d grouped twice in %v", i, groups)
				seen[i] = true
			}
		}
	}
	assert.Equal(t, []FloorGroup{{FirstIndex: 0, LastIndex: 1}, {FirstIndex: 5, LastIndex: 6}, {FirstIndex: 3, LastIndex: 4}}, groups)
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession("p-1", []FloorGroup{{FirstIndex: 4, LastIndex: 5}})
	s = s.Toggle(1).Toggle(2).Toggle(3).Toggle(3)
	assert.Equal(t, []int{1, 2}, s.Selection())

	grouped, err := s.Group()
	require.NoError(t, err)
	assert.Empty(t, grouped.Selection())
	assert.Equal(t, []FloorGroup{{FirstIndex: 4, LastIndex: 5}, {FirstIndex: 1, LastIndex: 2}}, grouped.Groups)
	assert.Equal(t, []int{1, 2}, s.Selection(), "original session must not change")

	failed, err := grouped.Toggle(5).Toggle(6).Group()
	assert.ErrorIs(t, err, ErrAlreadyGrouped)
	assert.Equal(t, []int{5, 6}, failed.Selection())

	ungrouped, err := grouped.Ungroup(FloorGroup{FirstIndex: 4, LastIndex: 5})
	require.NoError(t, err)
	assert.Equal(t, []FloorGroup{{FirstIndex: 1, LastIndex: 2}}, ungrouped.Groups)

	_, err = ungrouped.Ungroup(FloorGroup{FirstIndex: 4, LastIndex: 5})
	assert.ErrorIs(t, err, ErrGroupNotFound)

	assert.Empty(t, s.Clear().Selection())
}

func TestValidateGroups(t *testing.T) {
	assert.NoError(t, ValidateGroups(nil, 0))
	assert.NoError(t, ValidateGroups([]FloorGroup{{0, 1}, {3, 5}}, 6))

	for _, groups := range [][]FloorGroup{
		{{0, 0}},
		{{2, 1}},
		{{-1, 1}},
		{{4, 6}},
		{{0, 2}, {2, 3}},
	} {
		assert.ErrorIs(t, ValidateGroups(groups, 6), ErrInvalidGroup, "%v", groups)
	}
}

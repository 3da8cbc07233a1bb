package pdfgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloorRange(t *testing.T) {
	tests := []struct {
		in   string
		want *FloorRange
	}{
		{"NV2-NV5", &FloorRange{Start: 2, End: 5, IsRange: true}},
		{"RDC", &FloorRange{Start: 1, End: 1}},
		{"rdc", &FloorRange{Start: 1, End: 1}},
		{"Toit", &FloorRange{Start: 9999, End: 9999}},
		{"NV3", &FloorRange{Start: 3, End: 3}},
		{" NV7 - NV4 ", &FloorRange{Start: 4, End: 7, IsRange: true}},
		{"RDC-Toit", &FloorRange{Start: 1, End: 9999, IsRange: true}},
		{"", nil},
		{"   ", nil},
		{"mezzanine", nil},
		{"NV2-", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFloorRange(tt.in))
		})
	}
}

type item struct {
	id    int
	floor string
}

func TestGroupByFloor(t *testing.T) {
	items := []item{
		{1, "NV3"},
		{2, "NV2-NV5"},
		{3, "???"},
		{4, "RDC"},
		{5, "NV4"},
		{6, "NV8"},
		{7, ""},
	}

	groups := GroupByFloor(items, func(i item) string { return i.floor })
	require.Len(t, groups, 4)

	assert.Equal(t, &FloorRange{Start: 1, End: 1}, groups[0].Range)
	assert.Equal(t, []int{4}, ids(groups[0].Items))

	// NV3 opened a group that NV2-NV5 widened; NV4 then fell inside it.
	assert.Equal(t, &FloorRange{Start: 2, End: 5, IsRange: true}, groups[1].Range)
	assert.Equal(t, "NV2-NV5", groups[1].Label)
	assert.Equal(t, []int{1, 2, 5}, ids(groups[1].Items))

	assert.Equal(t, []int{6}, ids(groups[2].Items))

	assert.Nil(t, groups[3].Range)
	assert.Equal(t, []int{3, 7}, ids(groups[3].Items))
}

func TestGroupByFloorMergesCoveredGroups(t *testing.T) {
	items := []item{
		{1, "NV2"},
		{2, "NV4"},
		{3, "NV7"},
		{4, "NV1-NV5"},
	}

	groups := GroupByFloor(items, func(i item) string { return i.floor })
	require.Len(t, groups, 2)

	assert.Equal(t, &FloorRange{Start: 1, End: 5, IsRange: true}, groups[0].Range)
	assert.Equal(t, "NV1-NV5", groups[0].Label)
	assert.Equal(t, []int{1, 2, 4}, ids(groups[0].Items))

	assert.Equal(t, &FloorRange{Start: 7, End: 7}, groups[1].Range)
	assert.Equal(t, []int{3}, ids(groups[1].Items))

	for i := range groups {
		for j := i + 1; j < len(groups); j++ {
			assert.False(t, groups[i].Range.Contains(*groups[j].Range) || groups[j].Range.Contains(*groups[i].Range),
				"groups %s and %s overlap", groups[i].Range, groups[j].Range)
		}
	}
}

func TestGroupByFloorEmpty(t *testing.T) {
	assert.Empty(t, GroupByFloor([]item{}, func(i item) string { return i.floor }))
}

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

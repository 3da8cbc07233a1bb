package pdfgen

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	groundLevel = 1
	roofLevel   = 9999
)

var trailingNumber = regexp.MustCompile(`(\d+)\s*$`)

// FloorRange is a parsed floor designation such as "NV3" or "NV2-NV5".
type FloorRange struct {
	Start   int  `json:"start"`
	End     int  `json:"end"`
	IsRange bool `json:"isRange"`
}

// Contains reports whether o lies entirely within r.
func (r FloorRange) Contains(o FloorRange) bool {
	return r.Start <= o.Start && r.End >= o.End
}

// ParseFloorRange parses free floor text. RDC is level 1 and Toit level 9999;
// other levels take their trailing number. Empty or unreadable text yields
// nil.
func ParseFloorRange(text string) *FloorRange {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	parts := strings.SplitN(text, "-", 2)
	start, ok := parseLevel(parts[0])
	if !ok {
		return nil
	}
	if len(parts) == 1 {
		return &FloorRange{Start: start, End: start}
	}

	end, ok := parseLevel(parts[1])
	if !ok {
		return nil
	}
	if end < start {
		start, end = end, start
	}
	return &FloorRange{Start: start, End: end, IsRange: true}
}

func parseLevel(token string) (int, bool) {
	token = strings.ToUpper(strings.TrimSpace(token))
	switch token {
	case "":
		return 0, false
	case "RDC":
		return groundLevel, true
	case "TOIT":
		return roofLevel, true
	}
	m := trailingNumber.FindStringSubmatch(token)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// RowGroup is a run of table rows sharing one floor range. Range is nil for
// the trailing group of items without a readable floor.
type RowGroup[T any] struct {
	Range *FloorRange
	Label string
	Items []T
}

// GroupByFloor places every item into the group whose range contains its own
// or is contained by it, widening the group in the latter case. A widened
// group absorbs every other group it now covers. Items keep their input order
// inside a group; groups are ordered by range and unreadable floors come last.
func GroupByFloor[T any](items []T, floorOf func(T) string) []RowGroup[T] {
	type pending struct {
		rng   FloorRange
		label string
		idx   []int
	}
	var groups []*pending
	var noFloor []T

	for i, item := range items {
		text := strings.TrimSpace(floorOf(item))
		r := ParseFloorRange(text)
		if r == nil {
			noFloor = append(noFloor, item)
			continue
		}

		var target *pending
		for _, g := range groups {
			if g.rng.Contains(*r) {
				target = g
				break
			}
			if r.Contains(g.rng) {
				g.rng = *r
				g.label = text
				target = g
				break
			}
		}
		if target == nil {
			groups = append(groups, &pending{rng: *r, label: text, idx: []int{i}})
			continue
		}
		target.idx = append(target.idx, i)

		kept := groups[:0]
		for _, g := range groups {
			if g != target && target.rng.Contains(g.rng) {
				target.idx = append(target.idx, g.idx...)
				continue
			}
			kept = append(kept, g)
		}
		groups = kept
		sort.Ints(target.idx)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].rng.Start != groups[j].rng.Start {
			return groups[i].rng.Start < groups[j].rng.Start
		}
		return groups[i].rng.End < groups[j].rng.End
	})

	out := make([]RowGroup[T], 0, len(groups)+1)
	for _, g := range groups {
		rng := g.rng
		rows := make([]T, len(g.idx))
		for k, i := range g.idx {
			rows[k] = items[i]
		}
		out = append(out, RowGroup[T]{Range: &rng, Label: g.label, Items: rows})
	}
	if len(noFloor) > 0 {
		out = append(out, RowGroup[T]{Label: "", Items: noFloor})
	}
	return out
}

func (r FloorRange) String() string {
	if !r.IsRange {
		return levelLabel(r.Start)
	}
	return fmt.Sprintf("%s - %s", levelLabel(r.Start), levelLabel(r.End))
}

func levelLabel(level int) string {
	switch level {
	case groundLevel:
		return "RDC"
	case roofLevel:
		return "Toit"
	}
	return fmt.Sprintf("NV%d", level)
}

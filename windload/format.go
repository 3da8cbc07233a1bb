package windload

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	DataResistance = "resistance"
	DataDeflection = "deflection"

	// entrySeparator spaces the entries apart inside the single-line cover field.
	entrySeparator = "               "
)

// Storey is one building level of the wind table, ordered ground to roof.
type Storey struct {
	Label string   `json:"label" dynamodbav:"label"`
	ULS   *float64 `json:"uls" dynamodbav:"uls"`
	SLS   *float64 `json:"sls" dynamodbav:"sls"`
}

// UnmarshalJSON accepts numbers, numeric strings, empty strings and null for
// the pressure values, since the editor posts raw input text.
func (s *Storey) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label string          `json:"label"`
		ULS   json.RawMessage `json:"uls"`
		SLS   json.RawMessage `json:"sls"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	uls, err := parsePressure(raw.ULS)
	if err != nil {
		return fmt.Errorf("storey %q uls: %w", raw.Label, err)
	}
	sls, err := parsePressure(raw.SLS)
	if err != nil {
		return fmt.Errorf("storey %q sls: %w", raw.Label, err)
	}
	s.Label, s.ULS, s.SLS = raw.Label, uls, sls
	return nil
}

func parsePressure(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return &f, nil
}

// Value picks the scalar for dataType: uls for "resistance", sls otherwise.
func (s Storey) Value(dataType string) *float64 {
	if dataType == DataResistance {
		return s.ULS
	}
	return s.SLS
}

// Entry is one displayed row of the wind table.
type Entry struct {
	Index int
	Label string
	Value *float64
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %s psf", e.Label, FormatNumber(e.Value))
}

// Entries collapses storeys into display rows. Every group yields one row
// carrying the maximum value of the storeys it covers; every ungrouped storey
// yields its own row. Rows are ordered by storey position, a group sorting at
// its first index. Group bounds outside the storey list are clipped and groups
// left empty by clipping are dropped.
func Entries(storeys []Storey, dataType string, groups []FloorGroup) []Entry {
	covered := make([]bool, len(storeys))
	entries := make([]Entry, 0, len(storeys))

	for _, g := range groups {
		first, last := g.FirstIndex, g.LastIndex
		if first < 0 {
			first = 0
		}
		if last > len(storeys)-1 {
			last = len(storeys) - 1
		}
		if first > last {
			continue
		}

		var peak *float64
		for i := first; i <= last; i++ {
			covered[i] = true
			v := storeys[i].Value(dataType)
			if v == nil || math.IsNaN(*v) {
				continue
			}
			if peak == nil || *v > *peak {
				val := *v
				peak = &val
			}
		}
		entries = append(entries, Entry{
			Index: first,
			Label: storeys[first].Label + " - " + storeys[last].Label,
			Value: peak,
		})
	}

	for i, s := range storeys {
		if covered[i] {
			continue
		}
		entries = append(entries, Entry{Index: i, Label: s.Label, Value: s.Value(dataType)})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })
	return entries
}

// FormatWindDataString renders the wind table for the cover page text field.
func FormatWindDataString(storeys []Storey, dataType string, groups []FloorGroup) string {
	entries := Entries(storeys, dataType, groups)
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, entrySeparator)
}

// FormatNumber rounds to at most five decimals, ties upward, and strips
// trailing zeros. Missing and non-finite values render as the empty string.
func FormatNumber(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return ""
	}
	rounded := math.Floor(*v*1e5+0.5) / 1e5
	if rounded == 0 {
		rounded = 0 // drop negative zero
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Float is a helper for building storeys in code.
func Float(v float64) *float64 { return &v }

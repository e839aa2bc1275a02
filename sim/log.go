package sim

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded simulation event.
type SimLogEntry struct {
	Tick     int
	Vehicle  string // entity label, or "--" for global events
	Category string // vehicle, navigation, intersection, qte, checkpoint, agent
	Key      string
	Value    string
	NumVal   float64
}

//	[T=042] 3v1      navigation  arrived        m1 -> i1
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-8s %-12s %-14s %s",
		e.Tick, e.Vehicle, e.Category, e.Key, e.Value)
}

// SimLog collects every event drained from the world. It is unbounded and
// meant for tests and headless reports.
type SimLog struct {
	entries []SimLogEntry
}

func NewSimLog() *SimLog {
	return &SimLog{}
}

func (sl *SimLog) Add(tick int, vehicle, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Vehicle:  vehicle,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries matching category and key. Empty strings match anything.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (sl *SimLog) FilterVehicle(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Vehicle == label {
			out = append(out, e)
		}
	}
	return out
}

func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category and key.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry reports whether an entry matches category, key and a value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.Filter(category, key) {
		if valueSubstr == "" || strings.Contains(e.Value, valueSubstr) {
			return true
		}
	}
	return false
}

// Sum adds up NumVal over the matching entries.
func (sl *SimLog) Sum(category, key string) float64 {
	var total float64
	for _, e := range sl.Filter(category, key) {
		total += e.NumVal
	}
	return total
}

func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

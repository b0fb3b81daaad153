package intent

import (
	"fmt"
	"math"
)

// Intent is one weighted, domain-tagged record to visualize.
type Intent struct {
	ID     string  `json:"id" yaml:"id" bson:"id"`
	Name   string  `json:"name" yaml:"name" bson:"name"`
	Domain string  `json:"domain" yaml:"domain" bson:"domain"`
	Value  float64 `json:"value" yaml:"value" bson:"value"`
}

// Group is the set of intents sharing a domain.
type Group struct {
	Domain  string
	Intents []Intent
}

// Filter returns the intents with a strictly positive value, in input order.
// NaN and infinite values are dropped as well.
func Filter(intents []Intent) []Intent {
	out := make([]Intent, 0, len(intents))
	for _, it := range intents {
		if it.Value > 0 && !math.IsInf(it.Value, 1) {
			out = append(out, it)
		}
	}
	return out
}

// Domains returns the unique domains in order of first appearance.
func Domains(intents []Intent) []string {
	seen := make(map[string]struct{}, len(intents))
	var domains []string
	for _, it := range intents {
		if _, ok := seen[it.Domain]; ok {
			continue
		}
		seen[it.Domain] = struct{}{}
		domains = append(domains, it.Domain)
	}
	return domains
}

// GroupByDomain partitions intents by domain. Groups follow [Domains] order
// and keep the input order inside each group.
func GroupByDomain(intents []Intent) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, it := range intents {
		i, ok := index[it.Domain]
		if !ok {
			i = len(groups)
			index[it.Domain] = i
			groups = append(groups, Group{Domain: it.Domain})
		}
		groups[i].Intents = append(groups[i].Intents, it)
	}
	return groups
}

// MaxValue returns the largest value, or 0 for an empty slice.
func MaxValue(intents []Intent) float64 {
	var m float64
	for i, it := range intents {
		if i == 0 || it.Value > m {
			m = it.Value
		}
	}
	return m
}

// Sum returns the total of all values.
func Sum(intents []Intent) float64 {
	var s float64
	for _, it := range intents {
		s += it.Value
	}
	return s
}

// AssignIDs fills in missing ids with "intent-<index>".
func AssignIDs(intents []Intent) {
	for i := range intents {
		if intents[i].ID == "" {
			intents[i].ID = fmt.Sprintf("intent-%d", i)
		}
	}
}

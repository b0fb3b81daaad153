package intent

import (
	"bytes"
	"math"
	"slices"
	"strings"
	"testing"
)

func TestFilter(t *testing.T) {
	in := []Intent{
		{ID: "a", Value: 3},
		{ID: "b", Value: 0},
		{ID: "c", Value: -2},
		{ID: "d", Value: math.NaN()},
		{ID: "e", Value: 0.5},
		{ID: "f", Value: math.Inf(1)},
	}

	got := Filter(in)
	var ids []string
	for _, it := range got {
		ids = append(ids, it.ID)
	}
	if want := []string{"a", "e"}; !slices.Equal(ids, want) {
		t.Errorf("Filter() ids = %v, want %v", ids, want)
	}
}

func TestDomains(t *testing.T) {
	in := []Intent{
		{Domain: "billing"},
		{Domain: "smalltalk"},
		{Domain: "billing"},
		{Domain: ""},
		{Domain: "orders"},
	}
	got := Domains(in)
	want := []string{"billing", "smalltalk", "", "orders"}
	if !slices.Equal(got, want) {
		t.Errorf("Domains() = %v, want %v", got, want)
	}

	if got := Domains(nil); len(got) != 0 {
		t.Errorf("Domains(nil) = %v, want empty", got)
	}
}

func TestGroupByDomain(t *testing.T) {
	in := []Intent{
		{ID: "1", Domain: "A"},
		{ID: "2", Domain: "B"},
		{ID: "3", Domain: "A"},
	}
	groups := GroupByDomain(in)
	if len(groups) != 2 {
		t.Fatalf("GroupByDomain() returned %d groups, want 2", len(groups))
	}
	if groups[0].Domain != "A" || len(groups[0].Intents) != 2 {
		t.Errorf("group 0 = %+v", groups[0])
	}
	if groups[0].Intents[1].ID != "3" {
		t.Errorf("group order not preserved: %+v", groups[0].Intents)
	}
	if groups[1].Domain != "B" {
		t.Errorf("group 1 domain = %q, want B", groups[1].Domain)
	}
}

func TestMaxValueAndSum(t *testing.T) {
	in := []Intent{{Value: 10}, {Value: 5}, {Value: 20}}
	if got := MaxValue(in); got != 20 {
		t.Errorf("MaxValue() = %v, want 20", got)
	}
	if got := Sum(in); got != 35 {
		t.Errorf("Sum() = %v, want 35", got)
	}
	if got := MaxValue(nil); got != 0 {
		t.Errorf("MaxValue(nil) = %v, want 0", got)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		input   string
		want    int
		wantErr bool
	}{
		{"json list", FormatJSON, `[{"id":"1","name":"hi","domain":"A","value":2}]`, 1, false},
		{"json object", FormatJSON, `{"intents":[{"name":"a","domain":"A","value":1},{"name":"b","domain":"B","value":2}]}`, 2, false},
		{"yaml list", FormatYAML, "- {name: a, domain: A, value: 1}\n- {name: b, domain: B, value: 2}\n", 2, false},
		{"yaml object", FormatYAML, "intents:\n  - name: a\n    domain: A\n    value: 1\n", 1, false},
		{"empty", FormatJSON, "  ", 0, false},
		{"malformed", FormatJSON, `[{"name":`, 0, true},
		{"unknown format", "xml", `<a/>`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input), tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("Decode() returned %d intents, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDecodeAssignsIDs(t *testing.T) {
	got, err := Decode([]byte(`[{"name":"a","value":1},{"id":"x","name":"b","value":1}]`), FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got[0].ID != "intent-0" {
		t.Errorf("missing id assigned %q, want intent-0", got[0].ID)
	}
	if got[1].ID != "x" {
		t.Errorf("explicit id overwritten: %q", got[1].ID)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"intents.json": FormatJSON,
		"intents.yaml": FormatYAML,
		"INTENTS.YML":  FormatYAML,
		"intents":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	in := []Intent{{ID: "1", Name: "greet", Domain: "smalltalk", Value: 4}}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, in); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	if !strings.Contains(buf.String(), `"domain": "smalltalk"`) {
		t.Errorf("WriteJSON() output missing domain: %s", buf.String())
	}
	out, err := Read(&buf, FormatJSON)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !slices.Equal(in, out) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

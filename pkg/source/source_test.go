package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/matzehuels/bubblechart/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    int
	}{
		{"json list", "a.json", `[{"id":"1","name":"a","domain":"x","value":3}]`, 1},
		{"json document", "b.json", `{"intents":[{"name":"a","domain":"x","value":3},{"name":"b","domain":"y","value":0}]}`, 2},
		{"yaml", "c.yaml", "- name: a\n  domain: x\n  value: 3\n", 1},
		{"empty", "d.json", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			src, err := Open(context.Background(), path, Options{})
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer src.Close()
			if src.Kind() != "file" || src.Ref() != path {
				t.Errorf("Kind/Ref = %s/%s", src.Kind(), src.Ref())
			}
			got, err := src.Load(context.Background())
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("loaded %d intents, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFileStdin(t *testing.T) {
	f, err := NewFile("-", "")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	f.Stdin = strings.NewReader(`[{"name":"a","domain":"x","value":1}]`)
	got, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].ID == "" {
		t.Errorf("got %+v, want one intent with an assigned id", got)
	}
}

func TestFileErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewFile("", ""); err == nil {
		t.Error("empty path should fail")
	}
	if _, err := NewFile("a.json", "csv"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("csv error = %v, want INVALID_FORMAT", err)
	}

	missing, _ := NewFile(filepath.Join(t.TempDir(), "nope.json"), "")
	if _, err := missing.Load(ctx); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}

	bad, _ := NewFile(writeFile(t, "bad.json", "{nope"), "")
	if _, err := bad.Load(ctx); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad file error = %v, want INVALID_INPUT", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	ok, _ := NewFile(writeFile(t, "ok.json", "[]"), "")
	if _, err := ok.Load(cctx); err == nil {
		t.Error("cancelled context should fail")
	}
}

func TestIsMongoURI(t *testing.T) {
	tests := []struct {
		ref string
		want bool
	}{
		{"mongodb://localhost", true},
		{"mongodb+srv://cluster", true},
		{"intents.json", false},
		{"-", false},
		{"mongo.json", false},
	}
	for _, tt := range tests {
		if got := IsMongoURI(tt.ref); got != tt.want {
			t.Errorf("IsMongoURI(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestConnectRejectsBadURI(t *testing.T) {
	_, err := Connect(context.Background(), "http://localhost")
	if !errors.Is(err, errors.ErrCodeInvalidSource) {
		t.Errorf("error = %v, want INVALID_SOURCE", err)
	}
}

func TestMongoFilterAndRef(t *testing.T) {
	m := &Mongo{opts: MongoOptions{Database: "db", Collection: "c", Domain: "billing"}}
	if got := m.Ref(); got != "db/c?domain=billing" {
		t.Errorf("Ref() = %s", got)
	}
	want := bson.D{{Key: "domain", Value: "billing"}}
	if got := m.Filter(); len(got) != 1 || got[0] != want[0] {
		t.Errorf("Filter() = %v, want %v", got, want)
	}

	m.opts.Domain = ""
	if len(m.Filter()) != 0 {
		t.Error("Filter() should be empty without a domain")
	}
}

func TestObjectIDString(t *testing.T) {
	oid := primitive.NewObjectID()
	tests := []struct {
		in   any
		want string
	}{
		{oid, oid.Hex()},
		{"abc", "abc"},
		{nil, ""},
		{int32(7), "7"},
	}
	for _, tt := range tests {
		if got := objectIDString(tt.in); got != tt.want {
			t.Errorf("objectIDString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

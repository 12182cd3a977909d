package blocks_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blockform/pkg/blocks"
)

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := blocks.NewMap()
	m.Set("title", "Hello")
	m.Set("count", 3)
	m.Set("flag", true)

	if diff := cmp.Diff([]string{"title", "count", "flag"}, m.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	// Replacing keeps the original position.
	m.Set("title", "Updated")
	if diff := cmp.Diff([]string{"title", "count", "flag"}, m.Keys()); diff != "" {
		t.Errorf("keys after replace mismatch (-want +got):\n%s", diff)
	}
	title, _ := m.Get("title")
	if title != "Updated" {
		t.Errorf("title = %v, want Updated", title)
	}
}

func TestMapJSONRoundTripKeepsOrder(t *testing.T) {
	input := `{"title":"Hello","count":3,"flag":true}`

	var m blocks.Map
	if err := json.Unmarshal([]byte(input), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"title", "count", "flag"}, m.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(&m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != input {
		t.Errorf("marshal = %s, want %s", out, input)
	}
}

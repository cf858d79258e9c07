package roster

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/humzaiqbal/trash-tracker/internal/models"
)

func TestNormalizePeople(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []models.Person
	}{
		{
			name: "legacy string",
			raw:  `["Carol"]`,
			want: []models.Person{{Name: "Carol", ID: "carol"}},
		},
		{
			name: "legacy string with inner whitespace",
			raw:  `["Mary  Ann Lee"]`,
			want: []models.Person{{Name: "Mary  Ann Lee", ID: "mary_ann_lee"}},
		},
		{
			name: "object with id passes through",
			raw:  `[{"id":"a1","name":"Alice","email":"A@x.com","anonymousCount":2}]`,
			want: []models.Person{{ID: "a1", Name: "Alice", Email: "A@x.com", AnonymousCount: 2}},
		},
		{
			name: "name and email without id",
			raw:  `[{"name":"Bob Smith","email":"Bob.S@Example.com"}]`,
			want: []models.Person{{ID: "bobsexamplecom_bob_smith", Name: "Bob Smith", Email: "Bob.S@Example.com"}},
		},
		{
			name: "name only",
			raw:  `[{"name":"Dave"}]`,
			want: []models.Person{{ID: "dave", Name: "Dave"}},
		},
		{
			name: "unreadable entries fall back",
			raw:  `[null, 42, {}]`,
			want: []models.Person{{Name: UnknownName, ID: UnknownID}},
		},
		{
			name: "negative group size clamps to zero",
			raw:  `[{"id":"e1","name":"Eve","anonymousCount":-3}]`,
			want: []models.Person{{ID: "e1", Name: "Eve"}},
		},
		{
			name: "duplicate identities keep the first entry",
			raw:  `["Carol", {"id":"carol","name":"Carol","anonymousCount":4}]`,
			want: []models.Person{{Name: "Carol", ID: "carol"}},
		},
		{
			name: "object keyed by index",
			raw:  `{"1":"Bea","0":"Al","10":"Cy"}`,
			want: []models.Person{
				{Name: "Al", ID: "al"},
				{Name: "Bea", ID: "bea"},
				{Name: "Cy", ID: "cy"},
			},
		},
		{
			name: "missing",
			raw:  ``,
			want: []models.Person{},
		},
		{
			name: "not a sequence",
			raw:  `"Alice"`,
			want: []models.Person{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePeople(json.RawMessage(tt.raw))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NormalizePeople() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		`["Carol", "Dan Brown"]`,
		`[{"id":"a1","name":"Alice","anonymousCount":1}]`,
		`[{"name":"Bob","email":"b@x.com"}, "Zed", null]`,
	}
	for _, raw := range inputs {
		first := NormalizePeople(json.RawMessage(raw))
		encoded, err := json.Marshal(first)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		second := NormalizePeople(encoded)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("second normalization of %s changed the records (-first +second):\n%s", raw, diff)
		}
	}
}

func TestCanonicalRecordIsUnchanged(t *testing.T) {
	canonical := models.Person{ID: "bx_bob", Name: "Bob", Email: "b@x.com", AnonymousCount: 3}
	encoded, _ := json.Marshal(canonical)

	var stored StoredPerson
	if err := json.Unmarshal(encoded, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, wasCanonical := stored.Normalize()
	if !wasCanonical {
		t.Error("expected canonical record to be reported as canonical")
	}
	if got != canonical {
		t.Errorf("Normalize() = %+v, want %+v", got, canonical)
	}
}

func TestLegacyPerson(t *testing.T) {
	got, canonical := LegacyPerson("Carol").Normalize()
	if canonical {
		t.Error("legacy string should not be reported as canonical")
	}
	if got != (models.Person{Name: "Carol", ID: "carol"}) {
		t.Errorf("Normalize() = %+v", got)
	}
}

func TestNormalizeRoutes(t *testing.T) {
	raw := `[
		{"id": 1, "name": "Main Street", "people": ["Carol"]},
		{"name": "", "people": "broken"},
		null,
		{"id": "4", "name": "Park Avenue"},
		"garbage"
	]`
	want := []models.Route{
		{ID: 1, Name: "Main Street", People: []models.Person{{Name: "Carol", ID: "carol"}}},
		{ID: 2, Name: "Route 2", People: []models.Person{}},
		{ID: 4, Name: "Park Avenue", People: []models.Person{}},
		{ID: 5, Name: "Route 5", People: []models.Person{}},
	}
	got := NormalizeRoutes(json.RawMessage(raw))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeRoutes() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeRoutesFromObject(t *testing.T) {
	raw := `{"1": {"id": 2, "name": "B", "people": []}, "0": {"id": 1, "name": "A"}}`
	got := NormalizeRoutes(json.RawMessage(raw))
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("expected routes 1,2 in key order, got %+v", got)
	}
}

func TestNormalizeRoutesNotASequence(t *testing.T) {
	got := NormalizeRoutes(json.RawMessage(`"nope"`))
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

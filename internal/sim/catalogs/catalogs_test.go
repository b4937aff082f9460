package catalogs

import (
	"encoding/json"
	"testing"
)

func TestLoadShippedConfigs(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	digests := map[string]string{
		"items":     c.Items.Digest,
		"abilities": c.Abilities.Digest,
		"structs":   c.Structs.Digest,
		"classes":   c.Classes.Digest,
	}
	seen := map[string]string{}
	for name, d := range digests {
		if len(d) != 64 {
			t.Errorf("%s digest = %q, want sha256 hex", name, d)
		}
		if prev, dup := seen[d]; dup {
			t.Errorf("%s and %s share a digest", name, prev)
		}
		seen[d] = name
	}

	rags, ok := c.Items.ByID["rags"]
	if !ok {
		t.Fatalf("rags missing from items catalog")
	}
	def := rags.EquipStats["def"]
	if def.Flat != 2 || def.Amp["vitality"] != 0.5 {
		t.Fatalf("rags def bonus = %+v", def)
	}

	strike, ok := c.Abilities.ByID["strike"]
	if !ok {
		t.Fatalf("strike missing from abilities catalog")
	}
	if !strike.Active || strike.Effects == nil || strike.Effects.Damage == nil {
		t.Fatalf("strike blueprint incomplete: %+v", strike)
	}
	if d := strike.Effects.Damage; d.Stat != "atk" || d.Vs != "def" {
		t.Fatalf("strike damage stats = %+v", d)
	}

	// Classes may only reference catalog entries that exist.
	for id, class := range c.Classes.ByID {
		for _, ab := range class.Abilities {
			if _, ok := c.Abilities.ByID[ab]; !ok {
				t.Errorf("class %s references unknown ability %q", id, ab)
			}
		}
		for _, it := range class.StartingItems {
			if _, ok := c.Items.ByID[it]; !ok {
				t.Errorf("class %s references unknown item %q", id, it)
			}
		}
	}
}

func TestInteractionSpecForms(t *testing.T) {
	var spec InteractionSpec
	if err := json.Unmarshal([]byte(`"rest"`), &spec); err != nil {
		t.Fatalf("string form: %v", err)
	}
	if spec.Handler != "rest" || spec.Sub != nil {
		t.Fatalf("string form parsed as %+v", spec)
	}

	spec = InteractionSpec{}
	if err := json.Unmarshal([]byte(`{"patrol":"patrol","explore":"explore"}`), &spec); err != nil {
		t.Fatalf("object form: %v", err)
	}
	if spec.Handler != "" || spec.Sub["patrol"] != "patrol" {
		t.Fatalf("object form parsed as %+v", spec)
	}

	if err := json.Unmarshal([]byte(`{"visit":{"nested":"no"}}`), &spec); err == nil {
		t.Fatalf("nested object must be rejected")
	}
}

func TestPerimeterCompositeVisit(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	peri := c.Structs.ByID["perimeter"]
	visit, ok := peri.Interactions["visit"]
	if !ok || visit.Sub == nil {
		t.Fatalf("perimeter visit = %+v, want composite", visit)
	}
	if visit.Sub["patrol"] != "patrol" || visit.Sub["explore"] != "explore" {
		t.Fatalf("perimeter sub-interactions = %+v", visit.Sub)
	}
	if peri.JoinLimit != 12 {
		t.Fatalf("perimeter join limit = %d", peri.JoinLimit)
	}
}

func TestLoadMissingDir(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for empty config dir")
	}
}

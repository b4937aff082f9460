// Package catalogs loads the immutable blueprint tables the world is
// built from. Blueprints are read-only catalog entries; runtime instances
// are derived from them and never written back.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Catalogs struct {
	Items     ItemCatalog
	Abilities AbilityCatalog
	Structs   StructCatalog
	Classes   ClassCatalog
}

type ItemCatalog struct {
	ByID   map[string]ItemBlueprint
	Digest string
}

// ItemBlueprint describes an equippable or carryable item.
// EquipStats maps a target stat to its flat bonus and amplification rule.
type ItemBlueprint struct {
	ID          string               `json:"id"`
	Type        string               `json:"item_type"` // "weapon","armor","accessory","consumable"
	Build       string               `json:"build,omitempty"`
	Slot        string               `json:"slot,omitempty"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	EquipStats  map[string]StatBonus `json:"equip_stats,omitempty"`
}

type StatBonus struct {
	Flat int                `json:"flat"`
	Amp  map[string]float64 `json:"amp,omitempty"`
}

type AbilityCatalog struct {
	ByID   map[string]AbilityBlueprint
	Digest string
}

// AbilityBlueprint describes an ability. Passive abilities (active=false)
// omit the combat fields entirely; callers must not assume their presence.
type AbilityBlueprint struct {
	ID         string `json:"id"`
	SimpleName string `json:"simplename"`
	Tier       int    `json:"tier"`
	Active     bool   `json:"active"`

	Type    string `json:"ability_type,omitempty"`
	Action  string `json:"action,omitempty"`
	Intent  string `json:"intent,omitempty"`
	Flavor  string `json:"flavor,omitempty"`
	Target  string `json:"target,omitempty"`
	AOE     string `json:"aoe,omitempty"`

	Effects *AbilityEffects `json:"effects,omitempty"`
}

type AbilityEffects struct {
	Damage *DamageEffect `json:"damage,omitempty"`
}

type DamageEffect struct {
	Bonus     int     `json:"bonus"`
	Magnitude float64 `json:"magnitude"`
	Flavor    string  `json:"flavor,omitempty"`
	Stat      string  `json:"stat"` // attacker stat scaled by magnitude
	Vs        string  `json:"vs"`   // defender stat that resists
}

type StructCatalog struct {
	ByID   map[string]StructBlueprint
	Digest string
}

// StructBlueprint describes an interactive world object. Interactions maps
// an interaction key to its handler key, or one level of sub-interactions
// for composite entry points like "visit". Behavior lives in the world's
// dispatch table, not here.
type StructBlueprint struct {
	ID               string                     `json:"id"`
	Type             string                     `json:"struct_type"`
	Nickname         string                     `json:"nickname"`
	Description      string                     `json:"description"`
	InnerDescription string                     `json:"inner_description,omitempty"`
	Interactions     map[string]InteractionSpec `json:"interactions"`
	JoinLimit        int                        `json:"join_limit,omitempty"`
}

// InteractionSpec is either a bare handler key or a nested mapping of
// sub-interaction key -> handler key.
type InteractionSpec struct {
	Handler string
	Sub     map[string]string
}

func (s *InteractionSpec) UnmarshalJSON(b []byte) error {
	var handler string
	if err := json.Unmarshal(b, &handler); err == nil {
		s.Handler = handler
		return nil
	}
	var sub map[string]string
	if err := json.Unmarshal(b, &sub); err != nil {
		return fmt.Errorf("interaction spec must be a string or a flat object: %w", err)
	}
	s.Sub = sub
	return nil
}

func (s InteractionSpec) MarshalJSON() ([]byte, error) {
	if s.Sub != nil {
		return json.Marshal(s.Sub)
	}
	return json.Marshal(s.Handler)
}

type ClassCatalog struct {
	ByID   map[string]ClassBlueprint
	Digest string
}

// ClassBlueprint seeds a fresh player's stats, abilities and starting kit.
type ClassBlueprint struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Stats         map[string]int `json:"stats"`
	Abilities     []string       `json:"abilities,omitempty"`
	StartingItems []string       `json:"starting_items,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadAbilities(filepath.Join(configDir, "abilities.json"), &c.Abilities); err != nil {
		return nil, err
	}
	if err := loadStructs(filepath.Join(configDir, "structs.json"), &c.Structs); err != nil {
		return nil, err
	}
	if err := loadClasses(filepath.Join(configDir, "classes.json"), &c.Classes); err != nil {
		return nil, err
	}

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ItemBlueprint
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.ByID = map[string]ItemBlueprint{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		out.ByID[d.ID] = d
	}
	return nil
}

func loadAbilities(path string, out *AbilityCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []AbilityBlueprint
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("abilities.json: %w", err)
	}
	out.ByID = map[string]AbilityBlueprint{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("abilities.json: empty id")
		}
		if d.Active && (d.Action == "" || d.Target == "") {
			return fmt.Errorf("abilities.json: active ability %s missing action/target", d.ID)
		}
		out.ByID[d.ID] = d
	}
	return nil
}

func loadStructs(path string, out *StructCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []StructBlueprint
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("structs.json: %w", err)
	}
	out.ByID = map[string]StructBlueprint{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("structs.json: empty id")
		}
		if len(d.Interactions) == 0 {
			return fmt.Errorf("structs.json: struct %s declares no interactions", d.ID)
		}
		out.ByID[d.ID] = d
	}
	return nil
}

func loadClasses(path string, out *ClassCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ClassBlueprint
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("classes.json: %w", err)
	}
	out.ByID = map[string]ClassBlueprint{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("classes.json: empty id")
		}
		out.ByID[d.ID] = d
	}
	return nil
}

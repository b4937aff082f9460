package world

import (
	"io"
	"log"
	"testing"

	"chatventure.world/internal/protocol"
	"chatventure.world/internal/sim/catalogs"
	"chatventure.world/internal/sim/tuning"
)

func testCatalogs() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Items: catalogs.ItemCatalog{ByID: map[string]catalogs.ItemBlueprint{
			"rags": {
				ID: "rags", Type: "armor", Slot: SlotBody, Name: "Tattered Rags",
				EquipStats: map[string]catalogs.StatBonus{
					"def": {Flat: 2, Amp: map[string]float64{"vitality": 0.5}},
				},
			},
			"shiv": {
				ID: "shiv", Type: "weapon", Slot: SlotRightHand, Name: "Rusty Shiv",
				EquipStats: map[string]catalogs.StatBonus{
					"atk": {Flat: 3, Amp: map[string]float64{"agility": 0.5}},
				},
			},
			"buckler": {
				ID: "buckler", Type: "armor", Slot: SlotLeftHand, Name: "Pine Buckler",
				EquipStats: map[string]catalogs.StatBonus{
					"def": {Flat: 3},
				},
			},
			"hexed_band": {
				ID: "hexed_band", Type: "accessory", Slot: SlotTrinket, Name: "Hexed Band",
				EquipStats: map[string]catalogs.StatBonus{
					"luck": {Flat: 1},
				},
			},
		}},
		Abilities: catalogs.AbilityCatalog{ByID: map[string]catalogs.AbilityBlueprint{
			"strike": {
				ID: "strike", SimpleName: "Strike", Tier: 1, Active: true,
				Type: "martial", Action: "attack", Intent: "attack", Target: "other",
				Effects: &catalogs.AbilityEffects{
					Damage: &catalogs.DamageEffect{Bonus: 2, Magnitude: 1.0, Stat: "atk", Vs: "def"},
				},
			},
			"keen_eyes": {ID: "keen_eyes", SimpleName: "Keen Eyes", Tier: 1, Active: false},
		}},
		Structs: catalogs.StructCatalog{ByID: map[string]catalogs.StructBlueprint{
			"tavern": {
				ID: "tavern", Type: "social", Nickname: "Crossroad Tavern",
				Description:      "A warm tavern in {township}.",
				InnerDescription: "Lantern light and spilled ale.",
				Interactions: map[string]catalogs.InteractionSpec{
					"visit":   {Handler: "visit"},
					"rest":    {Handler: "rest"},
					"recruit": {Handler: "recruit"},
				},
			},
			"perimeter": {
				ID: "perimeter", Type: "functional", Nickname: "Perimeter",
				Description: "The walls of {township}.",
				Interactions: map[string]catalogs.InteractionSpec{
					"visit": {Sub: map[string]string{"patrol": "patrol", "explore": "explore"}},
				},
				JoinLimit: 3,
			},
			"stall": {
				ID: "stall", Type: "commerce", Nickname: "Trade Stall",
				Description: "A busy stall in {township}.",
				Interactions: map[string]catalogs.InteractionSpec{
					"trade": {Handler: "trade"},
				},
			},
		}},
		Classes: catalogs.ClassCatalog{ByID: map[string]catalogs.ClassBlueprint{
			"rogue": {
				ID: "rogue", Name: "Rogue",
				Stats: map[string]int{
					"strength": 8, "agility": 14, "vitality": 9, "willpower": 7,
					"intelligence": 10, "wisdom": 8,
					"atk": 12, "def": 7, "mag": 5, "res": 6, "spd": 12, "dft": 11,
					"hp": 38, "hpmax": 38, "mp": 10, "mpmax": 10,
				},
				Abilities:     []string{"strike", "keen_eyes"},
				StartingItems: []string{"shiv", "rags"},
			},
		}},
	}
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	cfg := Config{ID: "test_world", Seed: 1, DefaultClass: "rogue", StarterStructs: []string{"perimeter", "tavern"}}
	tune := tuning.Defaults()
	logger := log.New(io.Discard, "", 0)
	w, err := New(cfg, testCatalogs(), tune, logger, nil, nil)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func mustCreatePlayer(t *testing.T, w *World, name string) *Entity {
	t.Helper()
	soul, _, err := w.createSoul(&protocol.HelloCreate{Name: name, Password: "hunter22", Class: "rogue"})
	if err != nil {
		t.Fatalf("create soul %s: %v", name, err)
	}
	return soul.Player
}

func tavernIn(t *testing.T, w *World, township string) *StructState {
	t.Helper()
	town := w.townships[township]
	if town == nil {
		t.Fatalf("township %q missing", township)
	}
	st := town.TownMap.Structs["tavern"]
	if st == nil {
		t.Fatalf("no tavern in %q", township)
	}
	return st
}

package world

import (
	"chatventure.world/internal/pkg/idgen"
	"chatventure.world/internal/sim/catalogs"
)

// Item is a value object instanced from an immutable blueprint. Blueprint
// fields are copied at instancing time so a loaded catalog can never be
// mutated through an instance.
type Item struct {
	ID          string
	BlueprintID string
	Type        string
	Build       string
	Slot        string
	Name        string
	Description string
	EquipStats  map[string]catalogs.StatBonus
}

var itemIDs = idgen.NewPrefixed("item")

// NewItem instances an item from a blueprint with a fresh unique id.
func NewItem(bp catalogs.ItemBlueprint) *Item {
	it := &Item{
		ID:          itemIDs.Generate(),
		BlueprintID: bp.ID,
		Type:        bp.Type,
		Build:       bp.Build,
		Slot:        bp.Slot,
		Name:        bp.Name,
		Description: bp.Description,
	}
	if len(bp.EquipStats) > 0 {
		it.EquipStats = make(map[string]catalogs.StatBonus, len(bp.EquipStats))
		for stat, bonus := range bp.EquipStats {
			copied := catalogs.StatBonus{Flat: bonus.Flat}
			if len(bonus.Amp) > 0 {
				copied.Amp = make(map[string]float64, len(bonus.Amp))
				for amp, mult := range bonus.Amp {
					copied.Amp[amp] = mult
				}
			}
			it.EquipStats[stat] = copied
		}
	}
	return it
}

// clearSlotItem is the sentinel passed to EquipOne to empty a slot
// instead of equipping.
func clearSlotItem(slot string) *Item {
	return &Item{Slot: slot}
}

// IsSentinel reports whether the item is the clear-slot sentinel.
func (it *Item) IsSentinel() bool {
	return it == nil || it.Name == ""
}

package world

import (
	"math"
	"sort"

	"chatventure.world/internal/errors"
)

// Equipment math. Stat application is bit-exact and order-sensitive:
// for each stat S in the item's equip stats, S gains the flat bonus,
// then floor(agent.stats[A] * mult) for every amplifying stat A.
// Unequip subtracts the same formula evaluated at current stat values.
// Map keys are walked in sorted order so repeated runs agree.
//
// Equip operations on one agent are sequential because they only ever
// run on the world loop goroutine.

// EquipOne equips a single item into a named slot, unequipping any
// occupant into inventory first. A sentinel item (no name) clears the
// slot instead. Validation happens before any mutation.
func EquipOne(agent *Entity, item *Item, slot string) error {
	if slot == "" && item != nil {
		slot = item.Slot
	}
	if !validSlot(slot) {
		return errors.Validationf("unknown equipment slot %q", slot)
	}
	if item.IsSentinel() {
		if agent.Equipment[slot] != nil {
			return Unequip(agent, slot)
		}
		return nil
	}
	if item.Slot != "" && item.Slot != slot {
		return errors.Validationf("item %s fits slot %q, not %q", item.Name, item.Slot, slot)
	}
	if err := checkEquipStats(agent, item); err != nil {
		return err
	}

	if agent.Equipment[slot] != nil {
		if err := Unequip(agent, slot); err != nil {
			return err
		}
	}
	if i := agent.InventoryIndex(item.ID); i >= 0 {
		agent.removeFromInventory(i)
	}
	agent.Equipment[slot] = item
	applyEquipStats(agent, item, 1)
	return nil
}

// EquipMany equips each item into its blueprint slot in order.
func EquipMany(agent *Entity, items []*Item) error {
	for _, item := range items {
		if err := EquipOne(agent, item, ""); err != nil {
			return err
		}
	}
	return nil
}

// Unequip removes the item from a slot, reverses its stat contribution
// at current stat values, and places it into inventory.
func Unequip(agent *Entity, slot string) error {
	if !validSlot(slot) {
		return errors.Validationf("unknown equipment slot %q", slot)
	}
	item := agent.Equipment[slot]
	if item == nil {
		return errors.NotFoundf("nothing equipped in slot %q", slot)
	}
	applyEquipStats(agent, item, -1)
	agent.Equipment[slot] = nil
	agent.Inventory = append(agent.Inventory, item)
	return nil
}

// checkEquipStats fails fast if the item references a stat the agent does
// not have. This is a blueprint/data problem, surfaced before mutation.
func checkEquipStats(agent *Entity, item *Item) error {
	for _, stat := range sortedStatKeys(item) {
		if _, ok := agent.Stats[stat]; !ok {
			return errors.DataIntegrityf("item %s targets stat %q which %s does not have", item.Name, stat, agent.Name)
		}
		for amp := range item.EquipStats[stat].Amp {
			if _, ok := agent.Stats[amp]; !ok {
				return errors.DataIntegrityf("item %s amplifies by stat %q which %s does not have", item.Name, amp, agent.Name)
			}
		}
	}
	return nil
}

func applyEquipStats(agent *Entity, item *Item, sign int) {
	for _, stat := range sortedStatKeys(item) {
		bonus := item.EquipStats[stat]
		agent.Stats[stat] += sign * bonus.Flat
		for _, amp := range sortedAmpKeys(bonus.Amp) {
			contribution := int(math.Floor(float64(agent.Stats[amp]) * bonus.Amp[amp]))
			agent.Stats[stat] += sign * contribution
		}
	}
}

func sortedStatKeys(item *Item) []string {
	keys := make([]string, 0, len(item.EquipStats))
	for k := range item.EquipStats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedAmpKeys(amp map[string]float64) []string {
	keys := make([]string, 0, len(amp))
	for k := range amp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

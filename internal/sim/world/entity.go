package world

import (
	"sort"

	"chatventure.world/internal/errors"
	"chatventure.world/internal/pkg/idgen"
	"chatventure.world/internal/sim/catalogs"
)

// Capability tags classifying an entity for chatventure enrollment.
const (
	TagPlayer = "player"
	TagNPC    = "npc"
	TagMob    = "mob"
)

// Equipment slot names, fixed.
const (
	SlotRightHand = "rightHand"
	SlotLeftHand  = "leftHand"
	SlotHead      = "head"
	SlotBody      = "body"
	SlotAccessory = "accessory"
	SlotTrinket   = "trinket"
)

// EquipmentSlots lists every slot in stable order.
var EquipmentSlots = []string{SlotRightHand, SlotLeftHand, SlotHead, SlotBody, SlotAccessory, SlotTrinket}

func validSlot(slot string) bool {
	for _, s := range EquipmentSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Entity is any agent in the world: player, NPC, or mob. The Tag field
// classifies it; a missing or unknown tag is a data-integrity problem,
// never silently defaulted.
type Entity struct {
	ID   string
	Name string
	Tag  string

	Class string
	Icon  string

	Stats     map[string]int
	Equipment map[string]*Item
	Inventory []*Item
	Abilities map[string]*Ability

	// Party holds shared, non-owning references to companions that
	// follow this entity into chatventures.
	Party map[string]*Entity

	// Location is the township this entity currently occupies.
	Location string

	// CurrentChatventure is one side of the two-way reference; the
	// chatventure's participant list is the other.
	CurrentChatventure string

	// Rate limiting windows, keyed by action type. Runtime-only.
	rl map[string]*rateWindow
}

type rateWindow struct {
	StartTick uint64
	Count     int
}

var entityIDs = idgen.NewPrefixed("ent")

// NewEntity builds a bare entity with an empty equipment rack.
func NewEntity(name, tag string) *Entity {
	e := &Entity{
		ID:        entityIDs.Generate(),
		Name:      name,
		Tag:       tag,
		Stats:     map[string]int{},
		Equipment: map[string]*Item{},
		Abilities: map[string]*Ability{},
		Party:     map[string]*Entity{},
	}
	for _, slot := range EquipmentSlots {
		e.Equipment[slot] = nil
	}
	return e
}

// NewPlayerFromClass builds a player entity seeded from a class blueprint:
// stats copied, abilities instanced, starting items placed in inventory.
func NewPlayerFromClass(name string, class catalogs.ClassBlueprint, cats *catalogs.Catalogs) (*Entity, error) {
	e := NewEntity(name, TagPlayer)
	e.Class = class.ID
	for stat, v := range class.Stats {
		e.Stats[stat] = v
	}
	for _, abilID := range class.Abilities {
		bp, ok := cats.Abilities.ByID[abilID]
		if !ok {
			return nil, errors.DataIntegrityf("class %s references unknown ability %q", class.ID, abilID)
		}
		a := NewAbility(bp)
		e.Abilities[a.ID] = a
	}
	for _, itemID := range class.StartingItems {
		bp, ok := cats.Items.ByID[itemID]
		if !ok {
			return nil, errors.DataIntegrityf("class %s references unknown item %q", class.ID, itemID)
		}
		e.Inventory = append(e.Inventory, NewItem(bp))
	}
	return e, nil
}

// ValidateTag returns a data-integrity error for a missing or unknown tag.
func (e *Entity) ValidateTag() error {
	switch e.Tag {
	case TagPlayer, TagNPC, TagMob:
		return nil
	default:
		return errors.DataIntegrityf("entity %s has missing or invalid capability tag %q", e.Name, e.Tag)
	}
}

// InventoryIndex returns the position of an item id in inventory, or -1.
func (e *Entity) InventoryIndex(itemID string) int {
	for i, it := range e.Inventory {
		if it != nil && it.ID == itemID {
			return i
		}
	}
	return -1
}

// removeFromInventory drops the item at index i, preserving order.
func (e *Entity) removeFromInventory(i int) *Item {
	it := e.Inventory[i]
	e.Inventory = append(e.Inventory[:i], e.Inventory[i+1:]...)
	return it
}

// PartySorted returns party members in stable id order; chatventure
// enrollment must not depend on map iteration order.
func (e *Entity) PartySorted() []*Entity {
	ids := make([]string, 0, len(e.Party))
	for id := range e.Party {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.Party[id])
	}
	return out
}

// RateLimitAllow counts one action in a sliding window of windowTicks,
// allowing at most max.
func (e *Entity) RateLimitAllow(action string, nowTick uint64, windowTicks uint64, max int) bool {
	if e.rl == nil {
		e.rl = map[string]*rateWindow{}
	}
	win := e.rl[action]
	if win == nil || nowTick-win.StartTick >= windowTicks {
		e.rl[action] = &rateWindow{StartTick: nowTick, Count: 1}
		return true
	}
	if win.Count >= max {
		return false
	}
	win.Count++
	return true
}

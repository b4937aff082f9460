package world

import (
	"sort"

	"chatventure.world/internal/protocol"
)

// Payload builders are the only path from world state to the wire.
// They copy field by field, so credential material (password hashes,
// session tokens) can never ride along by accident.

func buildPlayerPayload(e *Entity) *protocol.PlayerPayload {
	p := &protocol.PlayerPayload{
		Name:               e.Name,
		Class:              e.Class,
		Icon:               e.Icon,
		Stats:              map[string]int{},
		Equipment:          map[string]*protocol.ItemRef{},
		Location:           e.Location,
		CurrentChatventure: e.CurrentChatventure,
	}
	for k, v := range e.Stats {
		p.Stats[k] = v
	}
	for slot, it := range e.Equipment {
		if it == nil {
			p.Equipment[slot] = nil
			continue
		}
		ref := wireItemRef(it)
		p.Equipment[slot] = &ref
	}
	for _, it := range e.Inventory {
		p.Inventory = append(p.Inventory, wireItemRef(it))
	}
	ids := make([]string, 0, len(e.Abilities))
	for id := range e.Abilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a := e.Abilities[id]
		p.Abilities = append(p.Abilities, protocol.AbilityRef{
			ID:       a.ID,
			Name:     a.CurrentName,
			Tier:     a.Tier,
			Active:   a.Active,
			ExpLevel: a.ExpLevel,
			UseLevel: a.UseLevel,
		})
	}
	return p
}

func wireItemRef(it *Item) protocol.ItemRef {
	return protocol.ItemRef{
		ID:          it.ID,
		Name:        it.Name,
		Type:        it.Type,
		Slot:        it.Slot,
		Description: it.Description,
	}
}

func buildEquipmentUpdate(e *Entity) protocol.EquipmentUpdate {
	u := protocol.EquipmentUpdate{
		Equipment: map[string]*protocol.ItemRef{},
		Stats:     map[string]int{},
	}
	for slot, it := range e.Equipment {
		if it == nil {
			u.Equipment[slot] = nil
			continue
		}
		ref := wireItemRef(it)
		u.Equipment[slot] = &ref
	}
	for _, it := range e.Inventory {
		u.Inventory = append(u.Inventory, wireItemRef(it))
	}
	for k, v := range e.Stats {
		u.Stats[k] = v
	}
	return u
}

func (w *World) buildLocationUpdate(townshipName string) *protocol.LocationUpdate {
	t := w.townships[townshipName]
	if t == nil {
		return nil
	}
	u := &protocol.LocationUpdate{
		Name:        t.Name,
		Nickname:    t.Nickname,
		Description: t.Description,
	}
	for _, entry := range t.HistoryTail(w.tune.HistoryWindow) {
		u.History = append(u.History, wireHistoryEntry(entry))
	}
	ids := make([]string, 0, len(t.TownMap.Structs))
	for id := range t.TownMap.Structs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		st := t.TownMap.Structs[id]
		ref := protocol.StructRef{
			ID:          st.ID,
			Nickname:    st.Nickname,
			Description: st.Description,
			Level:       st.Level,
		}
		if bp, ok := w.catalogs.Structs.ByID[st.BlueprintID]; ok {
			ref.Type = bp.Type
			keys := make([]string, 0, len(bp.Interactions))
			for key := range bp.Interactions {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			ref.Interactions = keys
		}
		u.Structs = append(u.Structs, ref)
	}
	return u
}

func buildChatventureUpdate(cv *Chatventure, historyWindow int, tornDown bool) protocol.ChatventureUpdate {
	u := protocol.ChatventureUpdate{
		ID:       cv.ID,
		Mode:     string(cv.Mode),
		Staging:  cv.Staging,
		Options:  map[string]protocol.Option{},
		TornDown: tornDown,
	}
	for key, opt := range cv.Options {
		u.Options[key] = protocol.Option{
			Echo:         opt.Echo,
			Description:  opt.Description,
			WhoCanChoose: opt.WhoCanChoose,
			Flags:        opt.Flags,
		}
	}
	u.Players = sortedPlayerNames(cv)
	history := cv.History
	if historyWindow > 0 && len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, entry := range history {
		u.History = append(u.History, wireHistoryEntry(entry))
	}
	return u
}

func wireHistoryEntry(entry HistoryEntry) protocol.HistoryEntry {
	return protocol.HistoryEntry{
		Agent:     entry.Agent,
		Echo:      entry.Echo,
		Timestamp: entry.Timestamp,
		Origin:    entry.Origin,
		EntryType: entry.EntryType,
	}
}

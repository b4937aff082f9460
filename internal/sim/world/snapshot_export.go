package world

import (
	"sort"
	"time"

	"chatventure.world/internal/persistence/snapshot"
)

// ExportGameState deep-copies the world into a serializable game state.
// Runs on the world loop goroutine; the result shares no pointers with
// live state, so encoding and writing happen off-thread safely.
func (w *World) ExportGameState() snapshot.GameStateV1 {
	now := time.Now()
	state := snapshot.GameStateV1{
		Header: snapshot.Header{
			Version: 1,
			WorldID: w.cfg.ID,
			Tick:    w.tick,
			DateKey: now.Format("01/02/2006"),
		},
		SavedAtUnixMs:  now.UnixMilli(),
		TickRate:       w.tune.TickRateHz,
		SaveEveryTicks: w.tune.SaveEveryTicks,
		Secrets:        w.vault.ExportSecrets(),
	}

	soulKeys := make([]string, 0, len(w.souls))
	for key := range w.souls {
		soulKeys = append(soulKeys, key)
	}
	sort.Strings(soulKeys)
	for _, key := range soulKeys {
		soul := w.souls[key]
		state.Souls = append(state.Souls, snapshot.SoulV1{
			Name:     soul.Name,
			Township: soul.Township.Name,
			Player:   exportEntity(soul.Player),
		})
	}

	townNames := make([]string, 0, len(w.townships))
	for name := range w.townships {
		townNames = append(townNames, name)
	}
	sort.Strings(townNames)
	for _, name := range townNames {
		state.Townships = append(state.Townships, exportTownship(w.townships[name]))
	}

	cvIDs := make([]string, 0, len(w.chatventures))
	for id := range w.chatventures {
		cvIDs = append(cvIDs, id)
	}
	sort.Strings(cvIDs)
	for _, id := range cvIDs {
		state.Chatventures = append(state.Chatventures, exportChatventure(w.chatventures[id]))
	}
	return state
}

func exportChatventure(cv *Chatventure) snapshot.ChatventureV1 {
	out := snapshot.ChatventureV1{
		ID:             cv.ID,
		Mode:           string(cv.Mode),
		Creator:        cv.Creator,
		JoinLimit:      cv.JoinLimit,
		JoinRules:      append([]string(nil), cv.JoinRules...),
		Staging:        cv.Staging,
		OriginTownship: cv.OriginTownship,
		OriginStruct:   cv.OriginStruct,
		OriginKey:      cv.OriginKey,
	}
	out.PlayerNames = sortedPlayerNames(cv)
	mobIDs := make([]string, 0, len(cv.Mobs))
	for id := range cv.Mobs {
		mobIDs = append(mobIDs, id)
	}
	sort.Strings(mobIDs)
	for _, id := range mobIDs {
		out.Mobs = append(out.Mobs, exportEntity(cv.Mobs[id]))
	}
	if len(cv.Options) > 0 {
		out.Options = map[string]snapshot.OptionV1{}
		for key, opt := range cv.Options {
			out.Options[key] = snapshot.OptionV1{
				Echo:         opt.Echo,
				Description:  opt.Description,
				WhoCanChoose: opt.WhoCanChoose,
				Flags:        append([]string(nil), opt.Flags...),
			}
		}
	}
	owners := make([]string, 0, len(cv.Events))
	for owner := range cv.Events {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	for _, owner := range owners {
		ev := cv.Events[owner]
		sv := snapshot.SubEventV1{Owner: owner, Type: ev.Type}
		if len(ev.SeedData) > 0 {
			sv.SeedData = map[string]string{}
			for k, v := range ev.SeedData {
				sv.SeedData[k] = v
			}
		}
		for _, entry := range ev.History {
			sv.History = append(sv.History, snapshot.HistoryV1(entry))
		}
		out.Events = append(out.Events, sv)
	}
	for _, entry := range cv.History {
		out.History = append(out.History, snapshot.HistoryV1(entry))
	}
	return out
}

func exportEntity(e *Entity) snapshot.EntityV1 {
	out := snapshot.EntityV1{
		ID:        e.ID,
		Name:      e.Name,
		Tag:       e.Tag,
		Class:     e.Class,
		Icon:      e.Icon,
		Stats:     map[string]int{},
		Equipment: map[string]*snapshot.ItemV1{},
		Location:  e.Location,
	}
	for k, v := range e.Stats {
		out.Stats[k] = v
	}
	// Empty slots are omitted: gob cannot encode nil map elements, and
	// the importer pre-seeds every slot anyway.
	for slot, it := range e.Equipment {
		if it == nil {
			continue
		}
		iv := exportItem(it)
		out.Equipment[slot] = &iv
	}
	for _, it := range e.Inventory {
		out.Inventory = append(out.Inventory, exportItem(it))
	}
	abilIDs := make([]string, 0, len(e.Abilities))
	for id := range e.Abilities {
		abilIDs = append(abilIDs, id)
	}
	sort.Strings(abilIDs)
	for _, id := range abilIDs {
		a := e.Abilities[id]
		out.Abilities = append(out.Abilities, snapshot.AbilityV1{
			ID:          a.ID,
			BlueprintID: a.BlueprintID,
			CurrentName: a.CurrentName,
			Exp:         a.Exp,
			ExpLevel:    a.ExpLevel,
			Use:         a.Use,
			UseLevel:    a.UseLevel,
			Mods:        append([]string(nil), a.Mods...),
		})
	}
	return out
}

func exportItem(it *Item) snapshot.ItemV1 {
	out := snapshot.ItemV1{
		ID:          it.ID,
		BlueprintID: it.BlueprintID,
		Type:        it.Type,
		Build:       it.Build,
		Slot:        it.Slot,
		Name:        it.Name,
		Description: it.Description,
	}
	if len(it.EquipStats) > 0 {
		out.EquipStats = map[string]snapshot.StatBonusV1{}
		for stat, bonus := range it.EquipStats {
			sv := snapshot.StatBonusV1{Flat: bonus.Flat}
			if len(bonus.Amp) > 0 {
				sv.Amp = map[string]float64{}
				for amp, mult := range bonus.Amp {
					sv.Amp[amp] = mult
				}
			}
			out.EquipStats[stat] = sv
		}
	}
	return out
}

func exportTownship(t *Township) snapshot.TownshipV1 {
	out := snapshot.TownshipV1{
		Name:        t.Name,
		Nickname:    t.Nickname,
		Description: t.Description,
		Population:  t.Population,
	}
	if len(t.Resources) > 0 {
		out.Resources = map[string]int{}
		for k, v := range t.Resources {
			out.Resources[k] = v
		}
	}
	for _, entry := range t.History {
		out.History = append(out.History, snapshot.HistoryV1(entry))
	}
	npcIDs := make([]string, 0, len(t.NPCs))
	for id := range t.NPCs {
		npcIDs = append(npcIDs, id)
	}
	sort.Strings(npcIDs)
	for _, id := range npcIDs {
		out.NPCs = append(out.NPCs, exportEntity(t.NPCs[id]))
	}
	structIDs := make([]string, 0, len(t.TownMap.Structs))
	for id := range t.TownMap.Structs {
		structIDs = append(structIDs, id)
	}
	sort.Strings(structIDs)
	for _, id := range structIDs {
		st := t.TownMap.Structs[id]
		sv := snapshot.StructV1{
			ID:               st.ID,
			BlueprintID:      st.BlueprintID,
			Nickname:         st.Nickname,
			Description:      st.Description,
			InnerDescription: st.InnerDescription,
			Level:            st.Level,
			Exp:              st.Exp,
			Construction:     st.Construction,
		}
		if len(st.Boosts) > 0 {
			sv.Boosts = map[string]int{}
			for k, v := range st.Boosts {
				sv.Boosts[k] = v
			}
		}
		for _, it := range st.Inventory {
			sv.Inventory = append(sv.Inventory, exportItem(it))
		}
		out.Structs = append(out.Structs, sv)
	}
	return out
}

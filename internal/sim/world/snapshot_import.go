package world

import (
	"strings"

	"chatventure.world/internal/errors"
	"chatventure.world/internal/persistence/snapshot"
	"chatventure.world/internal/sim/catalogs"
)

// importGameState rebuilds world state from a saved game state. Runs
// before the loop starts, so no concurrency concerns apply.
func (w *World) importGameState(state *snapshot.GameStateV1) error {
	w.tick = state.Header.Tick
	w.vault.ImportSecrets(state.Secrets)

	for i := range state.Townships {
		t, err := importTownship(&state.Townships[i], w.catalogs)
		if err != nil {
			return err
		}
		w.townships[t.Name] = t
	}
	for i := range state.Souls {
		sv := &state.Souls[i]
		town := w.townships[sv.Township]
		if town == nil {
			return errors.DataIntegrityf("soul %s references missing township %q", sv.Name, sv.Township)
		}
		player, err := importEntity(&sv.Player, w.catalogs)
		if err != nil {
			return err
		}
		if w.townships[player.Location] == nil {
			player.Location = ZenithicaName
		}
		w.souls[strings.ToLower(sv.Name)] = &Soul{
			Name:     sv.Name,
			Player:   player,
			Township: town,
		}
	}
	for i := range state.Chatventures {
		if err := w.importChatventure(&state.Chatventures[i]); err != nil {
			return err
		}
	}
	w.logger.Printf("resumed tick=%d souls=%d townships=%d chatventures=%d date=%s",
		w.tick, len(w.souls), len(w.townships), len(w.chatventures), state.Header.DateKey)
	return nil
}

// importChatventure re-links a saved session: player references resolve
// through their souls, and both sides of the struct reference are
// restored in the same pass.
func (w *World) importChatventure(cvv *snapshot.ChatventureV1) error {
	cv := &Chatventure{
		ID:             cvv.ID,
		Mode:           Mode(cvv.Mode),
		Creator:        cvv.Creator,
		Players:        map[string]*Entity{},
		Mobs:           map[string]*Entity{},
		JoinLimit:      cvv.JoinLimit,
		JoinRules:      append([]string(nil), cvv.JoinRules...),
		Events:         map[string]*SubEvent{},
		Options:        map[string]Option{},
		Staging:        cvv.Staging,
		OriginTownship: cvv.OriginTownship,
		OriginStruct:   cvv.OriginStruct,
		OriginKey:      cvv.OriginKey,
	}
	for _, name := range cvv.PlayerNames {
		soul := w.souls[strings.ToLower(name)]
		if soul == nil {
			return errors.DataIntegrityf("chatventure %s references missing soul %q", cvv.ID, name)
		}
		cv.Players[soul.Name] = soul.Player
		soul.Player.CurrentChatventure = cv.ID
	}
	for i := range cvv.Mobs {
		mob, err := importEntity(&cvv.Mobs[i], w.catalogs)
		if err != nil {
			return err
		}
		cv.Mobs[mob.ID] = mob
		mob.CurrentChatventure = cv.ID
	}
	for key, ov := range cvv.Options {
		cv.Options[key] = Option{
			Echo:         ov.Echo,
			Description:  ov.Description,
			WhoCanChoose: ov.WhoCanChoose,
			Flags:        append([]string(nil), ov.Flags...),
		}
	}
	for i := range cvv.Events {
		sv := &cvv.Events[i]
		ev := &SubEvent{Type: sv.Type, SeedData: map[string]string{}}
		for k, v := range sv.SeedData {
			ev.SeedData[k] = v
		}
		for _, hv := range sv.History {
			ev.History = append(ev.History, HistoryEntry(hv))
		}
		cv.Events[sv.Owner] = ev
	}
	for _, hv := range cvv.History {
		cv.History = append(cv.History, HistoryEntry(hv))
	}

	t := w.townships[cv.OriginTownship]
	if t == nil {
		return errors.DataIntegrityf("chatventure %s references missing township %q", cv.ID, cv.OriginTownship)
	}
	st := t.TownMap.Structs[cv.OriginStruct]
	if st == nil {
		return errors.DataIntegrityf("chatventure %s references missing struct %q in %s", cv.ID, cv.OriginStruct, t.Name)
	}
	st.InteractionChatRefs[cv.OriginKey] = cv.ID

	w.chatventures[cv.ID] = cv
	w.scheduleAmbient(cv)
	return nil
}

func importTownship(tv *snapshot.TownshipV1, cats *catalogs.Catalogs) (*Township, error) {
	t := &Township{
		Name:        tv.Name,
		Nickname:    tv.Nickname,
		Description: tv.Description,
		TownMap: TownMap{
			Description: "The grounds of " + tv.Nickname + ".",
			Structs:     map[string]*StructState{},
		},
		NPCs:       map[string]*Entity{},
		Population: tv.Population,
		Resources:  map[string]int{},
	}
	for k, v := range tv.Resources {
		t.Resources[k] = v
	}
	for _, hv := range tv.History {
		t.History = append(t.History, HistoryEntry(hv))
	}
	for i := range tv.NPCs {
		npc, err := importEntity(&tv.NPCs[i], cats)
		if err != nil {
			return nil, err
		}
		t.NPCs[npc.ID] = npc
	}
	for i := range tv.Structs {
		sv := &tv.Structs[i]
		bp, ok := cats.Structs.ByID[sv.BlueprintID]
		if !ok {
			return nil, errors.DataIntegrityf("township %s: struct %s references unknown blueprint %q", tv.Name, sv.ID, sv.BlueprintID)
		}
		st := newStructState(bp)
		initStruct(st, bp, t)
		st.ID = sv.ID
		st.Nickname = sv.Nickname
		st.Description = sv.Description
		st.InnerDescription = sv.InnerDescription
		st.Level = sv.Level
		st.Exp = sv.Exp
		st.Construction = sv.Construction
		for k, v := range sv.Boosts {
			st.Boosts[k] = v
		}
		for j := range sv.Inventory {
			it, err := importItem(&sv.Inventory[j], cats)
			if err != nil {
				return nil, err
			}
			st.Inventory = append(st.Inventory, it)
		}
		t.TownMap.Structs[st.ID] = st
	}
	return t, nil
}

func importEntity(ev *snapshot.EntityV1, cats *catalogs.Catalogs) (*Entity, error) {
	e := NewEntity(ev.Name, ev.Tag)
	if err := e.ValidateTag(); err != nil {
		return nil, err
	}
	e.ID = ev.ID
	e.Class = ev.Class
	e.Icon = ev.Icon
	e.Location = ev.Location
	for k, v := range ev.Stats {
		e.Stats[k] = v
	}
	for slot, iv := range ev.Equipment {
		if iv == nil {
			continue
		}
		it, err := importItem(iv, cats)
		if err != nil {
			return nil, err
		}
		e.Equipment[slot] = it
	}
	for i := range ev.Inventory {
		it, err := importItem(&ev.Inventory[i], cats)
		if err != nil {
			return nil, err
		}
		e.Inventory = append(e.Inventory, it)
	}
	for i := range ev.Abilities {
		av := &ev.Abilities[i]
		bp, ok := cats.Abilities.ByID[av.BlueprintID]
		if !ok {
			return nil, errors.DataIntegrityf("entity %s: ability references unknown blueprint %q", ev.Name, av.BlueprintID)
		}
		a := NewAbility(bp)
		a.ID = av.ID
		a.Exp = av.Exp
		a.ExpLevel = av.ExpLevel
		a.Use = av.Use
		a.UseLevel = av.UseLevel
		for _, mod := range av.Mods {
			a.ApplyMod(mod)
		}
		e.Abilities[a.ID] = a
	}
	return e, nil
}

func importItem(iv *snapshot.ItemV1, cats *catalogs.Catalogs) (*Item, error) {
	bp, ok := cats.Items.ByID[iv.BlueprintID]
	if !ok {
		return nil, errors.DataIntegrityf("item %s references unknown blueprint %q", iv.ID, iv.BlueprintID)
	}
	it := NewItem(bp)
	it.ID = iv.ID
	it.Name = iv.Name
	return it, nil
}

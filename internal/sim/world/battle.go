package world

import (
	"fmt"
	"math"
	"sort"

	"chatventure.world/internal/errors"
)

// wildMobTable is the pool spawnWildMob draws from. Stats follow the
// same keys as player entities so the damage math is symmetric.
var wildMobTable = []struct {
	Name  string
	Stats map[string]int
}{
	{Name: "muddy slime", Stats: map[string]int{"hp": 30, "hpmax": 30, "mp": 0, "mpmax": 0, "atk": 6, "def": 4, "mag": 0, "res": 2, "spd": 3, "dft": 2}},
	{Name: "chittering bat", Stats: map[string]int{"hp": 22, "hpmax": 22, "mp": 0, "mpmax": 0, "atk": 8, "def": 2, "mag": 0, "res": 2, "spd": 9, "dft": 6}},
	{Name: "husk bandit", Stats: map[string]int{"hp": 40, "hpmax": 40, "mp": 5, "mpmax": 5, "atk": 10, "def": 6, "mag": 2, "res": 3, "spd": 5, "dft": 4}},
}

// spawnWildMob adds one session-owned mob to a battle chatventure.
func (w *World) spawnWildMob(cv *Chatventure) *Entity {
	pick := wildMobTable[w.rng.Intn(len(wildMobTable))]
	mob := NewEntity(pick.Name, TagMob)
	for k, v := range pick.Stats {
		mob.Stats[k] = v
	}
	mob.Location = cv.OriginTownship
	mob.CurrentChatventure = cv.ID
	cv.Mobs[mob.ID] = mob
	return mob
}

// seedBattleOptions adds the universal flee option plus one option per
// active ability the agent holds, choosable only by that agent.
func seedBattleOptions(cv *Chatventure, agent *Entity) {
	cv.Options[OptionFlee] = Option{Echo: "flee", Description: "Break away from the fight."}
	for id, ab := range agent.Abilities {
		if !ab.Active {
			continue
		}
		cv.Options[id] = Option{
			Echo:         ab.CurrentName,
			Description:  ab.Flavor,
			WhoCanChoose: agent.Name,
		}
	}
}

func seedBattleOptionsAll(cv *Chatventure) {
	for _, name := range sortedPlayerNames(cv) {
		seedBattleOptions(cv, cv.Players[name])
	}
	if len(cv.Options) == 0 {
		cv.Options[OptionFlee] = Option{Echo: "flee", Description: "Break away from the fight."}
	}
}

func sortedPlayerNames(cv *Chatventure) []string {
	names := make([]string, 0, len(cv.Players))
	for name := range cv.Players {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// firstLivingMob picks the target for a player action: lowest id wins,
// so targeting is deterministic for a given session state.
func firstLivingMob(cv *Chatventure) *Entity {
	ids := make([]string, 0, len(cv.Mobs))
	for id := range cv.Mobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if cv.Mobs[id].Stats["hp"] > 0 {
			return cv.Mobs[id]
		}
	}
	return nil
}

func (w *World) resolveBattleOption(cv *Chatventure, agent *Entity, optionKey string) error {
	if optionKey == OptionFlee || optionKey == OptionLeave {
		return w.LeaveChatventure(cv.ID, agent)
	}

	ab, ok := agent.Abilities[optionKey]
	if !ok {
		return errors.InvalidOption(fmt.Sprintf("no ability %q available", optionKey))
	}
	if !ab.Active || ab.Effects == nil || ab.Effects.Damage == nil {
		return errors.InvalidOption(fmt.Sprintf("%q cannot be used in battle", ab.CurrentName))
	}

	target := firstLivingMob(cv)
	if target == nil {
		return errors.InvalidOption("nothing left to fight")
	}

	dmg, err := abilityDamage(agent, target, ab)
	if err != nil {
		return err
	}

	target.Stats["hp"] -= dmg
	ab.Use++
	ab.Exp++
	w.broadcastChatventure(cv, newHistoryEntry(agent.Name,
		fmt.Sprintf("%s hits %s with %s for %d!", agent.Name, target.Name, ab.CurrentName, dmg),
		cv.ID, EntryEvent))
	if target.Stats["hp"] <= 0 {
		target.Stats["hp"] = 0
		w.broadcastChatventure(cv, newHistoryEntry(target.Name,
			fmt.Sprintf("%s falls!", target.Name), cv.ID, EntryEvent))
	}

	if firstLivingMob(cv) == nil {
		w.endBattle(cv)
		return nil
	}

	w.mobTurn(cv, agent)
	return nil
}

// abilityDamage computes damage for one ability use:
//
//	bonus + floor(actor.stats[stat] * magnitude) - floor(target.stats[vs] / 2)
//
// floored at 1. A stat key missing on either side is a data-integrity
// failure, surfaced before anything is mutated.
func abilityDamage(actor, target *Entity, ab *Ability) (int, error) {
	d := ab.Effects.Damage
	actorStat, ok := actor.Stats[d.Stat]
	if !ok {
		return 0, errors.DataIntegrityf("ability %s scales off %q, which %s does not have", ab.CurrentName, d.Stat, actor.Name)
	}
	targetStat, ok := target.Stats[d.Vs]
	if !ok {
		return 0, errors.DataIntegrityf("ability %s checks against %q, which %s does not have", ab.CurrentName, d.Vs, target.Name)
	}
	dmg := d.Bonus + int(math.Floor(float64(actorStat)*d.Magnitude)) - targetStat/2
	if dmg < 1 {
		dmg = 1
	}
	return dmg, nil
}

// mobTurn has every living mob strike back, fastest first. Mobs use a
// plain atk-vs-def swing rather than catalog abilities.
func (w *World) mobTurn(cv *Chatventure, target *Entity) {
	ids := make([]string, 0, len(cv.Mobs))
	for id := range cv.Mobs {
		if cv.Mobs[id].Stats["hp"] > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := cv.Mobs[ids[i]], cv.Mobs[ids[j]]
		if a.Stats["spd"] != b.Stats["spd"] {
			return a.Stats["spd"] > b.Stats["spd"]
		}
		return a.ID < b.ID
	})
	for _, id := range ids {
		mob := cv.Mobs[id]
		dmg := mob.Stats["atk"] - target.Stats["def"]/2
		if dmg < 1 {
			dmg = 1
		}
		target.Stats["hp"] -= dmg
		if target.Stats["hp"] < 1 {
			// Players never die outright in the wilds; they hold at 1 hp.
			target.Stats["hp"] = 1
		}
		w.broadcastChatventure(cv, newHistoryEntry(mob.Name,
			fmt.Sprintf("%s strikes %s for %d!", mob.Name, target.Name, dmg),
			cv.ID, EntryEvent))
	}
}

// endBattle settles a won fight back into chill mode.
func (w *World) endBattle(cv *Chatventure) {
	cv.Mode = ModeChill
	cv.Staging = "The dust settles."
	for id := range cv.Mobs {
		if cv.Mobs[id].Tag == TagMob {
			delete(cv.Mobs, id)
		}
	}
	w.recomputeOptions(cv)
	w.scheduleAmbient(cv)
	w.broadcastChatventure(cv, newHistoryEntry("", "The fight is over.", cv.ID, EntryEvent))
}

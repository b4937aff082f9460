package world

import (
	"fmt"
	"strings"

	"chatventure.world/internal/errors"
	"chatventure.world/internal/sim/catalogs"
)

// StructState is the runtime half of a struct: the blueprint stays in the
// catalog, behavior lives in the dispatch table, and everything mutable
// lives here. A struct belongs to exactly one township.
type StructState struct {
	ID          string // blueprint id; unique within a township
	BlueprintID string

	Nickname         string
	Description      string
	InnerDescription string

	Level        int
	Exp          int
	Construction int
	Boosts       map[string]int
	Inventory    []*Item

	// InteractionChatRefs maps an interaction key to the id of the
	// chatventure currently hosted there, or "" when none. This is one
	// side of the two-way reference; teardown clears both sides in one
	// routine.
	InteractionChatRefs map[string]string
}

func newStructState(bp catalogs.StructBlueprint) *StructState {
	return &StructState{
		ID:                  bp.ID,
		BlueprintID:         bp.ID,
		Nickname:            bp.Nickname,
		Description:         bp.Description,
		InnerDescription:    bp.InnerDescription,
		Level:               1,
		Boosts:              map[string]int{},
		InteractionChatRefs: map[string]string{},
	}
}

// initStruct runs exactly once, at struct creation for a township. It
// personalizes descriptions and seeds interactionChatRefs with an empty
// ref for every declared interaction key, including sub-interactions.
func initStruct(st *StructState, bp catalogs.StructBlueprint, t *Township) {
	st.Description = strings.ReplaceAll(bp.Description, "{township}", t.Nickname)
	st.InnerDescription = strings.ReplaceAll(bp.InnerDescription, "{township}", t.Nickname)
	for key, spec := range bp.Interactions {
		st.InteractionChatRefs[key] = ""
		for sub := range spec.Sub {
			st.InteractionChatRefs[sub] = ""
		}
	}
}

// InteractionHandler is a blueprint-declared behavior, dispatched by
// handler key. Handlers never mutate blueprints; they mutate only the
// struct instance, the agent, and the world registries.
type InteractionHandler func(w *World, agent *Entity, st *StructState, t *Township, interactionKey string) error

// newInteractionHandlers builds the dispatch table mapping handler keys
// to behavior. Catalog data referencing a key absent here is a
// data-integrity error caught at world construction.
func newInteractionHandlers() map[string]InteractionHandler {
	return map[string]InteractionHandler{
		"visit":   handleVisit,
		"trade":   handleTrade,
		"patrol":  handlePatrol,
		"explore": handlePatrol,
		"rest":    handleRest,
		"recruit": handleRecruit,
	}
}

// resolveHandlerKey maps an interaction key on a blueprint to its handler
// key, descending one level into composite interactions.
func resolveHandlerKey(bp catalogs.StructBlueprint, interactionKey string) (string, bool) {
	if spec, ok := bp.Interactions[interactionKey]; ok {
		if spec.Handler != "" {
			return spec.Handler, true
		}
		// A composite entry invoked directly dispatches as itself.
		return interactionKey, true
	}
	for _, spec := range bp.Interactions {
		if handler, ok := spec.Sub[interactionKey]; ok {
			return handler, true
		}
	}
	return "", false
}

// InvokeStruct dispatches an interaction on a struct in the agent's
// current township.
func (w *World) InvokeStruct(agent *Entity, structID, interactionKey string) error {
	t := w.townships[agent.Location]
	if t == nil {
		return errors.NotFoundf("township %q not found", agent.Location)
	}
	st := t.TownMap.Structs[structID]
	if st == nil {
		return errors.NotFoundf("no struct %q in %s", structID, t.Name)
	}
	bp, ok := w.catalogs.Structs.ByID[st.BlueprintID]
	if !ok {
		return errors.DataIntegrityf("struct %s references unknown blueprint %q", st.ID, st.BlueprintID)
	}
	handlerKey, ok := resolveHandlerKey(bp, interactionKey)
	if !ok {
		return errors.NotFoundf("struct %s has no interaction %q", st.ID, interactionKey)
	}
	handler, ok := w.handlers[handlerKey]
	if !ok {
		return errors.DataIntegrityf("no handler registered for %q (struct %s)", handlerKey, st.ID)
	}
	return handler(w, agent, st, t, interactionKey)
}

// validateStructHandlers confirms every handler key in the struct catalog
// resolves against the dispatch table. Run once at world construction.
func validateStructHandlers(cats *catalogs.Catalogs, handlers map[string]InteractionHandler) error {
	for id, bp := range cats.Structs.ByID {
		for key, spec := range bp.Interactions {
			if spec.Handler != "" {
				if _, ok := handlers[spec.Handler]; !ok {
					return errors.DataIntegrityf("struct blueprint %s: interaction %q names unknown handler %q", id, key, spec.Handler)
				}
				continue
			}
			if _, ok := handlers[key]; !ok {
				return errors.DataIntegrityf("struct blueprint %s: composite interaction %q has no handler", id, key)
			}
			for sub, handler := range spec.Sub {
				if _, ok := handlers[handler]; !ok {
					return errors.DataIntegrityf("struct blueprint %s: sub-interaction %q names unknown handler %q", id, sub, handler)
				}
			}
		}
	}
	return nil
}

// handleVisit is the canonical chill entry point: join the chatventure
// already hosted on the struct, or create one and store the back-ref.
func handleVisit(w *World, agent *Entity, st *StructState, t *Township, interactionKey string) error {
	if ref := st.InteractionChatRefs[interactionKey]; ref != "" {
		return w.joinChatventure(ref, agent)
	}

	bp := w.catalogs.Structs.ByID[st.BlueprintID]
	cv, err := w.createChatventure(agent, ModeChill, st, t, interactionKey)
	if err != nil {
		// No reference is written when creation fails.
		return err
	}
	cv.Staging = fmt.Sprintf("%s — %s", st.Nickname, st.InnerDescription)
	seedVisitOptions(cv, bp)
	st.InteractionChatRefs[interactionKey] = cv.ID
	w.broadcastChatventure(cv, newHistoryEntry(agent.Name, fmt.Sprintf("%s arrives at %s.", agent.Name, st.Nickname), cv.ID, EntryEvent))
	return nil
}

// seedVisitOptions copies every interaction key except the entry point
// itself as a stub option, then adds the universal leave option and the
// creator-only end option.
func seedVisitOptions(cv *Chatventure, bp catalogs.StructBlueprint) {
	for key, spec := range bp.Interactions {
		if key == "visit" {
			for sub := range spec.Sub {
				cv.Options[sub] = Option{
					Echo:        sub,
					Description: fmt.Sprintf("%s at %s", sub, bp.Nickname),
				}
			}
			continue
		}
		cv.Options[key] = Option{
			Echo:        key,
			Description: fmt.Sprintf("%s at %s", key, bp.Nickname),
		}
	}
	cv.Options[OptionLeave] = Option{Echo: "leave", Description: "Step away."}
	cv.Options[OptionEnd] = Option{Echo: "end", Description: "Call it off.", WhoCanChoose: RoleCreator}
}

// handleTrade opens (or joins) a trade-mode chatventure on the struct.
func handleTrade(w *World, agent *Entity, st *StructState, t *Township, interactionKey string) error {
	if ref := st.InteractionChatRefs[interactionKey]; ref != "" {
		return w.joinChatventure(ref, agent)
	}
	cv, err := w.createChatventure(agent, ModeTrade, st, t, interactionKey)
	if err != nil {
		return err
	}
	cv.Staging = fmt.Sprintf("%s spreads their wares before you.", st.Nickname)
	cv.Options[OptionBrowse] = Option{Echo: "browse", Description: "Browse the goods on offer."}
	cv.Options[OptionLeave] = Option{Echo: "leave", Description: "Step away."}
	st.InteractionChatRefs[interactionKey] = cv.ID
	w.broadcastChatventure(cv, newHistoryEntry(agent.Name, fmt.Sprintf("%s starts browsing.", agent.Name), cv.ID, EntryEvent))
	return nil
}

// handlePatrol seeds a battle-mode chatventure against township mobs.
func handlePatrol(w *World, agent *Entity, st *StructState, t *Township, interactionKey string) error {
	if ref := st.InteractionChatRefs[interactionKey]; ref != "" {
		return w.joinChatventure(ref, agent)
	}
	cv, err := w.createChatventure(agent, ModeBattle, st, t, interactionKey)
	if err != nil {
		return err
	}
	cv.Staging = fmt.Sprintf("Beyond %s the wilds stir.", st.Nickname)
	w.spawnWildMob(cv)
	seedBattleOptions(cv, agent)
	st.InteractionChatRefs[interactionKey] = cv.ID
	w.broadcastChatventure(cv, newHistoryEntry(agent.Name, fmt.Sprintf("%s heads out on patrol.", agent.Name), cv.ID, EntryEvent))
	return nil
}

// handleRest restores hp/mp to their maximums. No chatventure involved.
func handleRest(w *World, agent *Entity, st *StructState, t *Township, interactionKey string) error {
	agent.Stats["hp"] = agent.Stats["hpmax"]
	agent.Stats["mp"] = agent.Stats["mpmax"]
	t.AppendHistory(newHistoryEntry(agent.Name, fmt.Sprintf("%s rests at %s.", agent.Name, st.Nickname), t.Name, EntryEvent))
	return nil
}

// handleRecruit is a stub: NPC behavior depth is out of scope.
func handleRecruit(w *World, agent *Entity, st *StructState, t *Township, interactionKey string) error {
	t.AppendHistory(newHistoryEntry(agent.Name, fmt.Sprintf("%s asks around at %s, but nobody is looking for work today.", agent.Name, st.Nickname), t.Name, EntryEvent))
	return nil
}

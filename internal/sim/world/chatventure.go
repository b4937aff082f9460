package world

import (
	"fmt"

	"chatventure.world/internal/errors"
	"chatventure.world/internal/pkg/idgen"
)

// Mode is the chatventure state machine's state. It governs which
// option-resolution rules apply.
type Mode string

const (
	ModeChill  Mode = "chill"
	ModeBattle Mode = "battle"
	ModeChoose Mode = "choose"
	ModeTrade  Mode = "trade"
)

// Universal option keys.
const (
	OptionLeave  = "leave"
	OptionEnd    = "end"
	OptionBrowse = "browse"
	OptionFlee   = "flee"
)

// Option roles for WhoCanChoose.
const (
	RoleAnyone  = ""
	RoleCreator = "creator"
)

// Option is one entry in a chatventure's current option set.
type Option struct {
	Echo         string
	Description  string
	WhoCanChoose string
	Flags        []string
}

// SubEvent is an independent sub-interaction owned by one originator,
// e.g. one participant's browsing state under a trade chatventure.
type SubEvent struct {
	Type     string
	SeedData map[string]string
	History  []HistoryEntry
}

// Chatventure is a joinable session spawned from a struct interaction.
// It references player state, it never owns it.
type Chatventure struct {
	ID      string
	Mode    Mode
	Creator string

	Players map[string]*Entity // name -> shared reference
	Mobs    map[string]*Entity // id -> owned for the session

	JoinLimit int
	JoinRules []string

	Events  map[string]*SubEvent
	Options map[string]Option
	Staging string
	History []HistoryEntry

	// Origin of the two-way reference. Teardown clears the struct's
	// interactionChatRefs entry through these.
	OriginTownship string
	OriginStruct   string
	OriginKey      string

	nextAmbientTick uint64
}

var chatventureIDs = idgen.NewPrefixed("chatventure")

// AppendHistory adds an entry to the chatventure's append-only log.
func (cv *Chatventure) AppendHistory(entry HistoryEntry) {
	cv.History = append(cv.History, entry)
}

func (cv *Chatventure) participantCount() int {
	return len(cv.Players)
}

// createChatventure builds and registers a chatventure, auto-enrolling
// the creator and every party member classified by capability tag.
// Tag validation happens before any mutation.
func (w *World) createChatventure(creator *Entity, mode Mode, st *StructState, t *Township, interactionKey string) (*Chatventure, error) {
	if err := creator.ValidateTag(); err != nil {
		return nil, err
	}
	for _, member := range creator.PartySorted() {
		if err := member.ValidateTag(); err != nil {
			return nil, err
		}
	}

	joinLimit := w.tune.DefaultJoinLimit
	if bp, ok := w.catalogs.Structs.ByID[st.BlueprintID]; ok && bp.JoinLimit > 0 {
		joinLimit = bp.JoinLimit
	}

	cv := &Chatventure{
		ID:             chatventureIDs.Generate(),
		Mode:           mode,
		Creator:        creator.Name,
		Players:        map[string]*Entity{},
		Mobs:           map[string]*Entity{},
		JoinLimit:      joinLimit,
		Events:         map[string]*SubEvent{},
		Options:        map[string]Option{},
		OriginTownship: t.Name,
		OriginStruct:   st.ID,
		OriginKey:      interactionKey,
	}
	w.enroll(cv, creator)
	for _, member := range creator.PartySorted() {
		w.enroll(cv, member)
	}
	w.chatventures[cv.ID] = cv
	w.scheduleAmbient(cv)
	return cv, nil
}

// enroll classifies an entity into players or mobs by tag. Tags were
// validated before any enrollment started.
func (w *World) enroll(cv *Chatventure, e *Entity) {
	switch e.Tag {
	case TagPlayer:
		cv.Players[e.Name] = e
	case TagNPC, TagMob:
		cv.Mobs[e.ID] = e
	}
	e.CurrentChatventure = cv.ID
}

// joinChatventure adds an agent (and party) to a live chatventure.
func (w *World) joinChatventure(id string, agent *Entity) error {
	cv := w.chatventures[id]
	if cv == nil {
		return errors.NotFoundf("chatventure %q not found", id)
	}
	if _, already := cv.Players[agent.Name]; already {
		// Re-joining is a no-op, not an error.
		return nil
	}
	if err := agent.ValidateTag(); err != nil {
		return err
	}
	for _, member := range agent.PartySorted() {
		if err := member.ValidateTag(); err != nil {
			return err
		}
	}
	incoming := 1 + len(agent.Party)
	if cv.JoinLimit > 0 && cv.participantCount()+incoming > cv.JoinLimit {
		return errors.JoinDenied("chatventure is full")
	}
	if err := checkJoinRules(cv, agent); err != nil {
		return err
	}

	w.enroll(cv, agent)
	for _, member := range agent.PartySorted() {
		w.enroll(cv, member)
	}
	w.broadcastChatventure(cv, newHistoryEntry(agent.Name, fmt.Sprintf("%s arrives.", agent.Name), cv.ID, EntryEvent))
	return nil
}

// checkJoinRules evaluates the chatventure's join rules against an agent.
func checkJoinRules(cv *Chatventure, agent *Entity) error {
	for _, rule := range cv.JoinRules {
		switch rule {
		case "sameTownship":
			if agent.Location != cv.OriginTownship {
				return errors.JoinDenied("must be in the hosting township to join")
			}
		default:
			return errors.DataIntegrityf("unknown join rule %q", rule)
		}
	}
	return nil
}

// ResolveOption applies a participant's choice against the current
// option set. Validation is complete before any mutation happens.
func (w *World) ResolveOption(id string, agent *Entity, optionKey string) error {
	cv := w.chatventures[id]
	if cv == nil {
		return errors.NotFoundf("chatventure %q not found", id)
	}
	if _, ok := cv.Players[agent.Name]; !ok {
		return errors.Forbidden("not a participant of this chatventure")
	}
	opt, ok := cv.Options[optionKey]
	if !ok {
		return errors.InvalidOption(fmt.Sprintf("no option %q here", optionKey))
	}
	switch opt.WhoCanChoose {
	case RoleAnyone:
	case RoleCreator:
		if agent.Name != cv.Creator {
			return errors.Forbidden("only the creator may choose that")
		}
	default:
		if opt.WhoCanChoose != agent.Name {
			return errors.Forbidden("that option is not yours to choose")
		}
	}

	switch cv.Mode {
	case ModeChill:
		return w.resolveChillOption(cv, agent, optionKey)
	case ModeBattle:
		return w.resolveBattleOption(cv, agent, optionKey)
	case ModeChoose:
		return w.resolveChooseOption(cv, agent, optionKey)
	case ModeTrade:
		return w.resolveTradeOption(cv, agent, optionKey)
	default:
		return errors.DataIntegrityf("chatventure %s has unknown mode %q", cv.ID, cv.Mode)
	}
}

func (w *World) resolveChillOption(cv *Chatventure, agent *Entity, optionKey string) error {
	switch optionKey {
	case OptionLeave:
		return w.LeaveChatventure(cv.ID, agent)
	case OptionEnd:
		w.teardownChatventure(cv)
		return nil
	case "patrol", "explore":
		// An encounter escalates chill to battle for everyone present.
		cv.Mode = ModeBattle
		w.spawnWildMob(cv)
		cv.Staging = "Something hostile closes in."
		w.recomputeOptions(cv)
		w.broadcastChatventure(cv, newHistoryEntry(agent.Name, fmt.Sprintf("%s stirs up trouble!", agent.Name), cv.ID, EntryEvent))
		return nil
	case "trade":
		cv.Mode = ModeTrade
		w.recomputeOptions(cv)
		w.broadcastChatventure(cv, newHistoryEntry(agent.Name, fmt.Sprintf("%s turns to business.", agent.Name), cv.ID, EntryEvent))
		return nil
	default:
		// Stub sub-interaction: record it under the agent's own event
		// lane without changing the shared option set.
		ev := cv.Events[agent.Name]
		if ev == nil {
			ev = &SubEvent{Type: optionKey, SeedData: map[string]string{}}
			cv.Events[agent.Name] = ev
		}
		entry := newHistoryEntry(agent.Name, fmt.Sprintf("%s looks into %q.", agent.Name, optionKey), cv.ID, EntryEvent)
		ev.History = append(ev.History, entry)
		w.broadcastChatventure(cv, entry)
		return nil
	}
}

func (w *World) resolveChooseOption(cv *Chatventure, agent *Entity, optionKey string) error {
	if optionKey == OptionLeave {
		return w.LeaveChatventure(cv.ID, agent)
	}
	if optionKey == OptionEnd {
		w.teardownChatventure(cv)
		return nil
	}
	ev := cv.Events[agent.Name]
	if ev == nil {
		ev = &SubEvent{Type: "choice", SeedData: map[string]string{}}
		cv.Events[agent.Name] = ev
	}
	ev.SeedData["choice"] = optionKey
	entry := newHistoryEntry(agent.Name, fmt.Sprintf("%s chooses %q.", agent.Name, optionKey), cv.ID, EntryEvent)
	ev.History = append(ev.History, entry)
	w.broadcastChatventure(cv, entry)
	return nil
}

// LeaveChatventure removes an agent (and party) from a chatventure,
// tearing it down when the last player departs.
func (w *World) LeaveChatventure(id string, agent *Entity) error {
	cv := w.chatventures[id]
	if cv == nil {
		return errors.NotFoundf("chatventure %q not found", id)
	}
	if _, ok := cv.Players[agent.Name]; !ok {
		return errors.Forbidden("not a participant of this chatventure")
	}
	delete(cv.Players, agent.Name)
	agent.CurrentChatventure = ""
	for _, member := range agent.PartySorted() {
		delete(cv.Mobs, member.ID)
		delete(cv.Players, member.Name)
		member.CurrentChatventure = ""
	}
	delete(cv.Events, agent.Name)

	if cv.participantCount() == 0 {
		w.teardownChatventure(cv)
		return nil
	}
	w.broadcastChatventure(cv, newHistoryEntry(agent.Name, fmt.Sprintf("%s leaves.", agent.Name), cv.ID, EntryEvent))
	return nil
}

// teardownChatventure is the single routine that clears both sides of
// the two-way reference: the originating struct's interaction ref and
// every remaining participant back-reference, in one logical operation.
func (w *World) teardownChatventure(cv *Chatventure) {
	if t := w.townships[cv.OriginTownship]; t != nil {
		if st := t.TownMap.Structs[cv.OriginStruct]; st != nil {
			if st.InteractionChatRefs[cv.OriginKey] == cv.ID {
				st.InteractionChatRefs[cv.OriginKey] = ""
			}
		}
	}
	for _, p := range cv.Players {
		p.CurrentChatventure = ""
	}
	for _, m := range cv.Mobs {
		m.CurrentChatventure = ""
	}
	w.emitChatventureTorndown(cv)
	cv.Players = map[string]*Entity{}
	cv.Mobs = map[string]*Entity{}
	delete(w.chatventures, cv.ID)
}

// recomputeOptions rebuilds the option set for the chatventure's current
// mode. The switch is exhaustive over modes.
func (w *World) recomputeOptions(cv *Chatventure) {
	cv.Options = map[string]Option{}
	switch cv.Mode {
	case ModeChill:
		if t := w.townships[cv.OriginTownship]; t != nil {
			if st := t.TownMap.Structs[cv.OriginStruct]; st != nil {
				if bp, ok := w.catalogs.Structs.ByID[st.BlueprintID]; ok {
					seedVisitOptions(cv, bp)
					return
				}
			}
		}
		cv.Options[OptionLeave] = Option{Echo: "leave", Description: "Step away."}
	case ModeBattle:
		seedBattleOptionsAll(cv)
	case ModeChoose:
		cv.Options[OptionLeave] = Option{Echo: "leave", Description: "Step away."}
		cv.Options[OptionEnd] = Option{Echo: "end", Description: "Call it off.", WhoCanChoose: RoleCreator}
	case ModeTrade:
		cv.Options[OptionBrowse] = Option{Echo: "browse", Description: "Browse the goods on offer."}
		cv.Options[OptionLeave] = Option{Echo: "leave", Description: "Step away."}
	}
}

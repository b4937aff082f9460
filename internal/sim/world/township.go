package world

import (
	"fmt"
	"time"

	"chatventure.world/internal/errors"
	"chatventure.world/internal/sim/catalogs"
)

// ZenithicaName is the shared commons township every soul can reach.
const ZenithicaName = "Zenithica"

// History entry types.
const (
	EntryChat    = "chat"
	EntryEvent   = "event"
	EntryAmbient = "ambient"
)

// HistoryEntry is one line of a township or chatventure log. Logs are
// append-only.
type HistoryEntry struct {
	Agent     string
	Echo      string
	Timestamp int64
	Origin    string
	EntryType string
}

func newHistoryEntry(agent, echo, origin, entryType string) HistoryEntry {
	return HistoryEntry{
		Agent:     agent,
		Echo:      echo,
		Timestamp: time.Now().UnixMilli(),
		Origin:    origin,
		EntryType: entryType,
	}
}

// TownMap holds a township's structs under a shared description.
type TownMap struct {
	Description string
	Structs     map[string]*StructState
}

// Township is a player-owned settlement, or the shared Zenithica commons.
type Township struct {
	Name        string
	Nickname    string
	Description string

	TownMap TownMap
	NPCs    map[string]*Entity
	History []HistoryEntry

	// Placeholder aggregates; economic simulation depth is out of scope.
	Population int
	Resources  map[string]int
}

// Soul is a player's persistent identity: the player entity plus the
// township they own.
type Soul struct {
	Name     string
	Player   *Entity
	Township *Township
}

// AppendHistory adds an entry to the township's append-only log.
func (t *Township) AppendHistory(entry HistoryEntry) {
	t.History = append(t.History, entry)
}

// HistoryTail returns up to n trailing history entries.
func (t *Township) HistoryTail(n int) []HistoryEntry {
	if n <= 0 || len(t.History) <= n {
		return t.History
	}
	return t.History[len(t.History)-n:]
}

// newTownship builds a township with one struct instance per blueprint in
// the given set, each initialized exactly once.
func newTownship(name, nickname, description string, structSet []string, cats *catalogs.Catalogs) (*Township, error) {
	t := &Township{
		Name:        name,
		Nickname:    nickname,
		Description: description,
		TownMap: TownMap{
			Description: fmt.Sprintf("The grounds of %s.", nickname),
			Structs:     map[string]*StructState{},
		},
		NPCs:      map[string]*Entity{},
		Resources: map[string]int{},
	}
	for _, bpID := range structSet {
		bp, ok := cats.Structs.ByID[bpID]
		if !ok {
			return nil, errors.DataIntegrityf("township %s: unknown struct blueprint %q", name, bpID)
		}
		st := newStructState(bp)
		initStruct(st, bp, t)
		t.TownMap.Structs[st.ID] = st
	}
	return t, nil
}

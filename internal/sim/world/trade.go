package world

import (
	"fmt"
	"strings"
)

// resolveTradeOption handles options in trade mode. Browsing is an
// independent sub-event per participant: each browser gets their own
// lane under cv.Events, so two browsers never see each other's state.
func (w *World) resolveTradeOption(cv *Chatventure, agent *Entity, optionKey string) error {
	switch optionKey {
	case OptionLeave:
		return w.LeaveChatventure(cv.ID, agent)
	case OptionBrowse:
		ev := cv.Events[agent.Name]
		if ev == nil {
			ev = &SubEvent{Type: "browse", SeedData: map[string]string{}}
			cv.Events[agent.Name] = ev
		}
		entry := newHistoryEntry("", w.tradeStockLine(cv), cv.ID, EntryEvent)
		ev.History = append(ev.History, entry)
		w.whisper(agent, entry)
		return nil
	default:
		// Option keys are recomputed per mode, so anything else that
		// passed the option lookup is a leftover; treat it as browse.
		return w.resolveTradeOption(cv, agent, OptionBrowse)
	}
}

// tradeStockLine renders the originating struct's inventory as a single
// history line.
func (w *World) tradeStockLine(cv *Chatventure) string {
	t := w.townships[cv.OriginTownship]
	if t == nil {
		return "The stall stands empty."
	}
	st := t.TownMap.Structs[cv.OriginStruct]
	if st == nil || len(st.Inventory) == 0 {
		return "Nothing is for sale right now."
	}
	names := make([]string, 0, len(st.Inventory))
	for _, item := range st.Inventory {
		names = append(names, item.Name)
	}
	return fmt.Sprintf("On offer: %s.", strings.Join(names, ", "))
}

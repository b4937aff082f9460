package world

// Ambient flavor keeps chill chatventures feeling inhabited. Each chill
// session gets its own randomized cadence between tuning's min and max
// tick bounds; battle, choose, and trade sessions stay quiet.

var ambientLines = []string{
	"A breeze drifts through, carrying the smell of rain.",
	"Somewhere nearby, a kettle whistles and goes quiet.",
	"Motes of lantern light wobble across the floor.",
	"A distant bell marks an hour nobody is counting.",
	"Someone's half-finished song trails off down the street.",
	"The floorboards settle with a contented creak.",
	"A cat pads past, supremely unbothered.",
	"Low laughter rises and fades from another table.",
}

// scheduleAmbient picks the next ambient tick for a chatventure.
func (w *World) scheduleAmbient(cv *Chatventure) {
	span := w.tune.AmbientMaxTicks - w.tune.AmbientMinTicks
	if span < 1 {
		span = 1
	}
	cv.nextAmbientTick = w.tick + uint64(w.tune.AmbientMinTicks) + uint64(w.rng.Intn(span))
}

// stepAmbient runs once per tick from the world loop and emits flavor
// into any chill chatventure whose timer has elapsed.
func (w *World) stepAmbient() {
	for _, cv := range w.chatventures {
		if cv.Mode != ModeChill {
			continue
		}
		if w.tick < cv.nextAmbientTick {
			continue
		}
		line := ambientLines[w.rng.Intn(len(ambientLines))]
		w.broadcastChatventure(cv, newHistoryEntry("", line, cv.ID, EntryAmbient))
		w.scheduleAmbient(cv)
	}
}

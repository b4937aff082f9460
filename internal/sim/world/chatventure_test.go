package world

import (
	"testing"

	"chatventure.world/internal/errors"
)

func TestVisitCreatesThenJoins(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")
	p2 := mustCreatePlayer(t, w, "Remy")
	st := tavernIn(t, w, ZenithicaName)

	if err := w.InvokeStruct(p1, "tavern", "visit"); err != nil {
		t.Fatalf("first visit: %v", err)
	}
	ref := st.InteractionChatRefs["visit"]
	if ref == "" {
		t.Fatalf("visit did not store a chatventure reference")
	}
	cv := w.chatventures[ref]
	if cv == nil {
		t.Fatalf("stored reference %q points at no chatventure", ref)
	}
	if cv.Creator != "Rigby" || p1.CurrentChatventure != cv.ID {
		t.Fatalf("creator not enrolled: creator=%q current=%q", cv.Creator, p1.CurrentChatventure)
	}
	if cv.Mode != ModeChill {
		t.Fatalf("visit mode = %q, want chill", cv.Mode)
	}
	for _, key := range []string{"rest", "recruit", OptionLeave} {
		if _, ok := cv.Options[key]; !ok {
			t.Errorf("expected option %q to be seeded", key)
		}
	}
	if _, ok := cv.Options["visit"]; ok {
		t.Errorf("entry point must not appear in its own option set")
	}

	// Second visitor joins the existing session instead of spawning one.
	if err := w.InvokeStruct(p2, "tavern", "visit"); err != nil {
		t.Fatalf("second visit: %v", err)
	}
	if len(w.chatventures) != 1 {
		t.Fatalf("expected 1 chatventure, have %d", len(w.chatventures))
	}
	if _, ok := cv.Players["Remy"]; !ok {
		t.Fatalf("second visitor not enrolled")
	}
}

func TestVisitRejoinIsNoop(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")

	if err := w.InvokeStruct(p1, "tavern", "visit"); err != nil {
		t.Fatalf("visit: %v", err)
	}
	before := len(w.chatventures)
	if err := w.InvokeStruct(p1, "tavern", "visit"); err != nil {
		t.Fatalf("re-visit: %v", err)
	}
	if len(w.chatventures) != before {
		t.Fatalf("re-visit changed chatventure count")
	}
}

func TestLastLeaveTearsDownBothSides(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")
	p2 := mustCreatePlayer(t, w, "Remy")
	st := tavernIn(t, w, ZenithicaName)

	if err := w.InvokeStruct(p1, "tavern", "visit"); err != nil {
		t.Fatalf("visit: %v", err)
	}
	if err := w.InvokeStruct(p2, "tavern", "visit"); err != nil {
		t.Fatalf("visit: %v", err)
	}
	cvID := st.InteractionChatRefs["visit"]

	if err := w.LeaveChatventure(cvID, p1); err != nil {
		t.Fatalf("first leave: %v", err)
	}
	if w.chatventures[cvID] == nil {
		t.Fatalf("chatventure torn down while a participant remains")
	}
	if err := w.LeaveChatventure(cvID, p2); err != nil {
		t.Fatalf("last leave: %v", err)
	}

	if w.chatventures[cvID] != nil {
		t.Fatalf("chatventure still registered after last leave")
	}
	if got := st.InteractionChatRefs["visit"]; got != "" {
		t.Fatalf("struct reference not cleared: %q", got)
	}
	if p1.CurrentChatventure != "" || p2.CurrentChatventure != "" {
		t.Fatalf("participant back-references not cleared")
	}
}

func TestResolveOptionRejections(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")
	outsider := mustCreatePlayer(t, w, "Remy")
	st := tavernIn(t, w, ZenithicaName)

	if err := w.InvokeStruct(p1, "tavern", "visit"); err != nil {
		t.Fatalf("visit: %v", err)
	}
	cvID := st.InteractionChatRefs["visit"]

	if err := w.ResolveOption(cvID, p1, "dance"); !errors.IsInvalidOption(err) {
		t.Fatalf("unknown option: got %v, want invalid option", err)
	}
	if err := w.ResolveOption(cvID, outsider, OptionLeave); !errors.IsForbidden(err) {
		t.Fatalf("non-participant: got %v, want forbidden", err)
	}
	if err := w.ResolveOption("chatventure_missing", p1, OptionLeave); !errors.IsNotFound(err) {
		t.Fatalf("missing chatventure: got %v, want not found", err)
	}
}

func TestJoinLimitDenied(t *testing.T) {
	w := newTestWorld(t)
	players := []*Entity{
		mustCreatePlayer(t, w, "A1"),
		mustCreatePlayer(t, w, "A2"),
		mustCreatePlayer(t, w, "A3"),
		mustCreatePlayer(t, w, "A4"),
	}

	// Perimeter caps sessions at 3 participants.
	for i, p := range players[:3] {
		if err := w.InvokeStruct(p, "perimeter", "patrol"); err != nil {
			t.Fatalf("player %d: %v", i, err)
		}
	}
	err := w.InvokeStruct(players[3], "perimeter", "patrol")
	if !errors.IsJoinDenied(err) {
		t.Fatalf("got %v, want join denied", err)
	}
}

func TestInvalidPartyTagBlocksCreation(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")
	st := tavernIn(t, w, ZenithicaName)

	weird := NewEntity("Weird", "dragon")
	p1.Party[weird.ID] = weird

	err := w.InvokeStruct(p1, "tavern", "visit")
	if !errors.IsDataIntegrity(err) {
		t.Fatalf("got %v, want data integrity", err)
	}
	if st.InteractionChatRefs["visit"] != "" {
		t.Fatalf("reference written despite failed creation")
	}
	if len(w.chatventures) != 0 {
		t.Fatalf("chatventure registered despite failed creation")
	}
	if p1.CurrentChatventure != "" {
		t.Fatalf("creator back-reference set despite failed creation")
	}
}

func TestPartyEnrollsByTag(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")
	companion := NewEntity("Scout", TagNPC)
	p1.Party[companion.ID] = companion

	if err := w.InvokeStruct(p1, "tavern", "visit"); err != nil {
		t.Fatalf("visit: %v", err)
	}
	cv := w.chatventures[p1.CurrentChatventure]
	if cv == nil {
		t.Fatalf("no chatventure")
	}
	if _, ok := cv.Mobs[companion.ID]; !ok {
		t.Fatalf("npc party member not enrolled on the mob side")
	}
	if companion.CurrentChatventure != cv.ID {
		t.Fatalf("party member back-reference not set")
	}
}

func TestPatrolEscalatesAndBattleResolves(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")

	if err := w.InvokeStruct(p1, "perimeter", "visit"); err != nil {
		t.Fatalf("visit: %v", err)
	}
	cv := w.chatventures[p1.CurrentChatventure]
	if _, ok := cv.Options["patrol"]; !ok {
		t.Fatalf("composite visit should surface patrol as an option")
	}

	if err := w.ResolveOption(cv.ID, p1, "patrol"); err != nil {
		t.Fatalf("patrol: %v", err)
	}
	if cv.Mode != ModeBattle {
		t.Fatalf("mode = %q, want battle", cv.Mode)
	}
	if len(cv.Mobs) == 0 {
		t.Fatalf("battle started without a mob")
	}
	if _, ok := cv.Options[OptionFlee]; !ok {
		t.Fatalf("flee option missing in battle")
	}

	var strikeID string
	for id, ab := range p1.Abilities {
		if ab.SimpleName == "Strike" {
			strikeID = id
		}
	}
	if strikeID == "" {
		t.Fatalf("player has no strike ability")
	}

	for i := 0; i < 20 && cv.Mode == ModeBattle; i++ {
		if err := w.ResolveOption(cv.ID, p1, strikeID); err != nil {
			t.Fatalf("strike %d: %v", i, err)
		}
	}
	if cv.Mode != ModeChill {
		t.Fatalf("battle never resolved back to chill")
	}
	if len(cv.Mobs) != 0 {
		t.Fatalf("dead mobs not cleared after victory")
	}
	if p1.Stats["hp"] < 1 {
		t.Fatalf("player hp fell below the floor: %d", p1.Stats["hp"])
	}
}

func TestTradeBrowseIsPerParticipant(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")
	p2 := mustCreatePlayer(t, w, "Remy")

	if err := w.InvokeStruct(p1, "stall", "trade"); err != nil {
		t.Fatalf("trade: %v", err)
	}
	cv := w.chatventures[p1.CurrentChatventure]
	if cv.Mode != ModeTrade {
		t.Fatalf("mode = %q, want trade", cv.Mode)
	}
	if err := w.InvokeStruct(p2, "stall", "trade"); err != nil {
		t.Fatalf("join trade: %v", err)
	}

	if err := w.ResolveOption(cv.ID, p1, OptionBrowse); err != nil {
		t.Fatalf("browse: %v", err)
	}
	if cv.Events["Rigby"] == nil {
		t.Fatalf("browse did not open a sub-event for the browser")
	}
	if cv.Events["Remy"] != nil {
		t.Fatalf("browse leaked into another participant's lane")
	}
}

func TestEndIsCreatorOnly(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")
	p2 := mustCreatePlayer(t, w, "Remy")
	st := tavernIn(t, w, ZenithicaName)

	if err := w.InvokeStruct(p1, "tavern", "visit"); err != nil {
		t.Fatalf("visit: %v", err)
	}
	if err := w.InvokeStruct(p2, "tavern", "visit"); err != nil {
		t.Fatalf("join: %v", err)
	}
	cvID := st.InteractionChatRefs["visit"]
	cv := w.chatventures[cvID]
	if opt, ok := cv.Options[OptionEnd]; !ok || opt.WhoCanChoose != RoleCreator {
		t.Fatalf("end option not seeded creator-only: %+v", opt)
	}

	if err := w.ResolveOption(cvID, p2, OptionEnd); !errors.IsForbidden(err) {
		t.Fatalf("non-creator end: got %v, want forbidden", err)
	}
	if w.chatventures[cvID] == nil {
		t.Fatalf("rejected end still tore the session down")
	}

	// The creator's end tears down for everyone at once.
	if err := w.ResolveOption(cvID, p1, OptionEnd); err != nil {
		t.Fatalf("creator end: %v", err)
	}
	if w.chatventures[cvID] != nil || st.InteractionChatRefs["visit"] != "" {
		t.Fatalf("end did not tear down both sides")
	}
	if p1.CurrentChatventure != "" || p2.CurrentChatventure != "" {
		t.Fatalf("participant back-references survived the end")
	}
}

func TestChooseModeRecordsChoices(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")
	p2 := mustCreatePlayer(t, w, "Remy")

	if err := w.InvokeStruct(p1, "tavern", "visit"); err != nil {
		t.Fatalf("visit: %v", err)
	}
	cv := w.chatventures[p1.CurrentChatventure]
	if err := w.joinChatventure(cv.ID, p2); err != nil {
		t.Fatalf("join: %v", err)
	}
	cv.Mode = ModeChoose
	w.recomputeOptions(cv)
	cv.Options["accept"] = Option{Echo: "accept"}
	cv.Options["decline"] = Option{Echo: "decline"}

	if err := w.ResolveOption(cv.ID, p1, "accept"); err != nil {
		t.Fatalf("choose accept: %v", err)
	}
	if err := w.ResolveOption(cv.ID, p2, "decline"); err != nil {
		t.Fatalf("choose decline: %v", err)
	}
	if got := cv.Events["Rigby"].SeedData["choice"]; got != "accept" {
		t.Fatalf("creator choice = %q, want accept", got)
	}
	if got := cv.Events["Remy"].SeedData["choice"]; got != "decline" {
		t.Fatalf("joiner choice = %q, want decline", got)
	}

	// End stays creator-gated in choose mode and settles the session.
	if err := w.ResolveOption(cv.ID, p2, OptionEnd); !errors.IsForbidden(err) {
		t.Fatalf("non-creator end: got %v, want forbidden", err)
	}
	if err := w.ResolveOption(cv.ID, p1, OptionEnd); err != nil {
		t.Fatalf("creator end: %v", err)
	}
	if w.chatventures[cv.ID] != nil {
		t.Fatalf("choose-mode end did not tear down")
	}
}

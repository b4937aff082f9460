package world

import (
	"testing"

	"github.com/google/uuid"

	"chatventure.world/internal/errors"
	"chatventure.world/internal/protocol"
)

func TestCreateSoulNameCollisionIsCaseInsensitive(t *testing.T) {
	w := newTestWorld(t)
	mustCreatePlayer(t, w, "Rigby")

	_, _, err := w.createSoul(&protocol.HelloCreate{Name: "rigby", Password: "hunter22"})
	if !errors.IsValidation(err) {
		t.Fatalf("got %v, want validation", err)
	}
	if len(w.souls) != 1 {
		t.Fatalf("collision registered a second soul")
	}
}

func TestCreateSoulRejectsBadCredentials(t *testing.T) {
	w := newTestWorld(t)
	cases := []protocol.HelloCreate{
		{Name: "", Password: "hunter22"},
		{Name: "two words", Password: "hunter22"},
		{Name: "Rigby", Password: ""},
		{Name: "Rigby", Password: "12345"},
	}
	for _, c := range cases {
		if _, _, err := w.createSoul(&c); !errors.IsValidation(err) {
			t.Errorf("create %+v: got %v, want validation", c, err)
		}
	}
}

func TestCreateSoulUnknownClass(t *testing.T) {
	w := newTestWorld(t)
	_, _, err := w.createSoul(&protocol.HelloCreate{Name: "Rigby", Password: "hunter22", Class: "bard"})
	if !errors.IsValidation(err) {
		t.Fatalf("got %v, want validation", err)
	}
}

func TestCreateSoulSeedsClassAndTownship(t *testing.T) {
	w := newTestWorld(t)
	p := mustCreatePlayer(t, w, "Rigby")

	if p.Location != ZenithicaName {
		t.Fatalf("spawn location = %q, want %q", p.Location, ZenithicaName)
	}
	if p.Stats["agility"] != 14 || p.Stats["hp"] != 38 {
		t.Fatalf("class stats not copied: %v", p.Stats)
	}
	if len(p.Abilities) != 2 || len(p.Inventory) != 2 {
		t.Fatalf("class kit not seeded: %d abilities, %d items", len(p.Abilities), len(p.Inventory))
	}
	town := w.townships["Rigby's township"]
	if town == nil {
		t.Fatalf("personal township missing")
	}
	if town.TownMap.Structs["perimeter"] == nil || town.TownMap.Structs["tavern"] == nil {
		t.Fatalf("starter structs missing")
	}
}

func TestHandleJoinPaths(t *testing.T) {
	w := newTestWorld(t)
	out := make(chan []byte, 16)

	// Create.
	resp := w.handleJoin(JoinRequest{Hello: protocol.HelloMsg{
		Create: &protocol.HelloCreate{Name: "Rigby", Password: "hunter22", Class: "rogue"},
	}, Out: out})
	if resp.Err != nil {
		t.Fatalf("create join: %v", resp.Err)
	}
	if !resp.Welcome.Created || resp.Welcome.Token == "" || resp.PlayerName != "Rigby" {
		t.Fatalf("create welcome malformed: %+v", resp.Welcome)
	}
	if _, err := uuid.Parse(resp.Welcome.SessionID); err != nil {
		t.Fatalf("session id %q is not a uuid: %v", resp.Welcome.SessionID, err)
	}
	token := resp.Welcome.Token

	// Token auth rotates the resume token.
	resp = w.handleJoin(JoinRequest{Hello: protocol.HelloMsg{
		Auth: &protocol.HelloAuth{Token: token},
	}, Out: out})
	if resp.Err != nil {
		t.Fatalf("token join: %v", resp.Err)
	}
	if resp.Welcome.Created {
		t.Fatalf("token join must not report created")
	}
	if resp.Welcome.Token == "" || resp.Welcome.Token == token {
		t.Fatalf("token join did not rotate the token")
	}
	rotated := resp.Welcome.Token

	// The presented token died with that handshake.
	resp = w.handleJoin(JoinRequest{Hello: protocol.HelloMsg{
		Auth: &protocol.HelloAuth{Token: token},
	}, Out: out})
	if !errors.IsInvalidToken(resp.Err) {
		t.Fatalf("spent token: got %v, want invalid token", resp.Err)
	}

	// Login also rotates; the previous token dies.
	resp = w.handleJoin(JoinRequest{Hello: protocol.HelloMsg{
		Login: &protocol.HelloLogin{Name: "rigby", Password: "hunter22"},
	}, Out: out})
	if resp.Err != nil {
		t.Fatalf("login join: %v", resp.Err)
	}
	if resp.Welcome.Token == rotated {
		t.Fatalf("login did not rotate the token")
	}
	resp = w.handleJoin(JoinRequest{Hello: protocol.HelloMsg{
		Auth: &protocol.HelloAuth{Token: rotated},
	}, Out: out})
	if !errors.IsInvalidToken(resp.Err) {
		t.Fatalf("stale token: got %v, want invalid token", resp.Err)
	}

	// Wrong password.
	resp = w.handleJoin(JoinRequest{Hello: protocol.HelloMsg{
		Login: &protocol.HelloLogin{Name: "Rigby", Password: "wrong-pass"},
	}, Out: out})
	if !errors.IsForbidden(resp.Err) {
		t.Fatalf("bad password: got %v, want forbidden", resp.Err)
	}

	// Exactly one credential section.
	resp = w.handleJoin(JoinRequest{Hello: protocol.HelloMsg{}, Out: out})
	if !errors.IsValidation(resp.Err) {
		t.Fatalf("empty hello: got %v, want validation", resp.Err)
	}
}

func TestWelcomeNeverCarriesSecrets(t *testing.T) {
	w := newTestWorld(t)
	out := make(chan []byte, 16)
	resp := w.handleJoin(JoinRequest{Hello: protocol.HelloMsg{
		Create: &protocol.HelloCreate{Name: "Rigby", Password: "hunter22"},
	}, Out: out})
	if resp.Err != nil {
		t.Fatalf("join: %v", resp.Err)
	}
	// The payload type has no room for credential material; what it does
	// carry must be copies, not live references.
	p := resp.Welcome.Player
	if p == nil {
		t.Fatalf("welcome without player payload")
	}
	soul := w.souls["rigby"]
	p.Stats["hp"] = -1
	if soul.Player.Stats["hp"] == -1 {
		t.Fatalf("payload shares the live stats map")
	}
}

func TestVisitTownship(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")
	mustCreatePlayer(t, w, "Remy")

	if err := w.VisitTownship(p1, "Remy's township"); err != nil {
		t.Fatalf("visit: %v", err)
	}
	if p1.Location != "Remy's township" {
		t.Fatalf("location = %q", p1.Location)
	}
	if err := w.VisitTownship(p1, "Atlantis"); !errors.IsNotFound(err) {
		t.Fatalf("unknown township: got %v, want not found", err)
	}

	// Moving away exits any live chatventure first.
	if err := w.InvokeStruct(p1, "tavern", "visit"); err != nil {
		t.Fatalf("tavern visit: %v", err)
	}
	if p1.CurrentChatventure == "" {
		t.Fatalf("expected live chatventure before the move")
	}
	if err := w.VisitTownship(p1, ZenithicaName); err != nil {
		t.Fatalf("move home: %v", err)
	}
	if p1.CurrentChatventure != "" {
		t.Fatalf("chatventure back-reference survived the move")
	}
}

func TestChatRateLimit(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")

	inst := protocol.InstantReq{Type: protocol.InstantChat, Text: "hello"}
	max := w.tune.RateLimits.ChatMax
	for i := 0; i < max; i++ {
		if err := w.applyChat(p1, inst, 10); err != nil {
			t.Fatalf("chat %d: %v", i, err)
		}
	}
	err := w.applyChat(p1, inst, 10)
	if errors.GetCode(err) != errors.CodeRateLimit {
		t.Fatalf("got %v, want rate limit", err)
	}

	// A fresh window clears the limiter.
	window := uint64(w.tune.RateLimits.ChatWindowTicks)
	if err := w.applyChat(p1, inst, 10+window); err != nil {
		t.Fatalf("chat after window: %v", err)
	}
}

func TestChatRequiresPresence(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")
	mustCreatePlayer(t, w, "Remy")

	err := w.applyChat(p1, protocol.InstantReq{
		Type: protocol.InstantChat, Text: "psst",
		TargetType: "township", Target: "Remy's township",
	}, 0)
	if !errors.IsForbidden(err) {
		t.Fatalf("got %v, want forbidden", err)
	}
	if err := w.applyChat(p1, protocol.InstantReq{Type: protocol.InstantChat, Text: "  "}, 0); !errors.IsValidation(err) {
		t.Fatalf("blank text: got %v, want validation", err)
	}
}

func TestAmbientOnlyTouchesChillSessions(t *testing.T) {
	w := newTestWorld(t)
	p1 := mustCreatePlayer(t, w, "Rigby")
	if err := w.InvokeStruct(p1, "tavern", "visit"); err != nil {
		t.Fatalf("visit: %v", err)
	}
	cv := w.chatventures[p1.CurrentChatventure]
	before := len(cv.History)

	// Force the timer due and step.
	cv.nextAmbientTick = 0
	w.tick = 1
	w.stepAmbient()
	if len(cv.History) != before+1 {
		t.Fatalf("ambient entry not appended")
	}
	last := cv.History[len(cv.History)-1]
	if last.EntryType != EntryAmbient {
		t.Fatalf("entry type = %q, want ambient", last.EntryType)
	}
	if cv.nextAmbientTick <= w.tick {
		t.Fatalf("ambient not rescheduled")
	}

	// Battle sessions stay silent.
	cv.Mode = ModeBattle
	cv.nextAmbientTick = 0
	n := len(cv.History)
	w.stepAmbient()
	if len(cv.History) != n {
		t.Fatalf("ambient fired during battle")
	}
}

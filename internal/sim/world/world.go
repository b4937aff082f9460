package world

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"time"

	"chatventure.world/internal/auth"
	"chatventure.world/internal/errors"
	"chatventure.world/internal/persistence/snapshot"
	"chatventure.world/internal/pkg/idgen"
	"chatventure.world/internal/protocol"
	"chatventure.world/internal/sim/catalogs"
	"chatventure.world/internal/sim/tuning"
)

type Config struct {
	ID   string
	Seed int64

	// DefaultClass seeds new players that do not name a class.
	DefaultClass string

	// StarterStructs are instanced into every new player township.
	StarterStructs []string
}

type JoinRequest struct {
	Hello protocol.HelloMsg
	Out   chan []byte
	Resp  chan JoinResponse
}

type JoinResponse struct {
	PlayerName string
	Welcome    protocol.WelcomeMsg
	Err        error
}

type ActionEnvelope struct {
	PlayerName string
	Act        protocol.ActMsg
}

type clientState struct {
	SessionID string
	Out       chan []byte
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      Config
	catalogs *catalogs.Catalogs
	tune     tuning.Tuning
	logger   *log.Logger

	tick uint64
	rng  *rand.Rand

	vault *auth.Vault

	souls        map[string]*Soul // lowercase name -> soul
	townships    map[string]*Township
	chatventures map[string]*Chatventure
	clients      map[string]*clientState // lowercase name -> attached client

	handlers map[string]InteractionHandler

	sessionIDs idgen.Generator

	inbox   chan ActionEnvelope
	join    chan JoinRequest
	leave   chan string
	saveNow chan chan snapshot.GameStateV1
	stop    chan struct{}

	// Optional snapshot sink (may be nil). Snapshot writing is off-thread.
	snapshotSink chan<- snapshot.GameStateV1

	metrics *Metrics
}

// New builds a world, optionally resuming from a saved game state.
func New(cfg Config, cats *catalogs.Catalogs, tune tuning.Tuning, logger *log.Logger, sink chan<- snapshot.GameStateV1, resume *snapshot.GameStateV1) (*World, error) {
	handlers := newInteractionHandlers()
	if err := validateStructHandlers(cats, handlers); err != nil {
		return nil, err
	}
	if len(cfg.StarterStructs) == 0 {
		cfg.StarterStructs = []string{"perimeter", "tavern"}
	}
	if cfg.DefaultClass == "" {
		cfg.DefaultClass = "rogue"
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	w := &World{
		cfg:          cfg,
		catalogs:     cats,
		tune:         tune,
		logger:       logger,
		rng:          rand.New(rand.NewSource(seed)),
		vault:        auth.NewVault(),
		souls:        map[string]*Soul{},
		townships:    map[string]*Township{},
		chatventures: map[string]*Chatventure{},
		clients:      map[string]*clientState{},
		handlers:     handlers,
		sessionIDs:   &idgen.UUIDGenerator{},
		inbox:        make(chan ActionEnvelope, 1024),
		join:         make(chan JoinRequest, 64),
		leave:        make(chan string, 64),
		saveNow:      make(chan chan snapshot.GameStateV1, 4),
		stop:         make(chan struct{}),
		snapshotSink: sink,
		metrics:      &Metrics{},
	}

	if resume != nil {
		if err := w.importGameState(resume); err != nil {
			return nil, err
		}
	}
	if err := w.ensureZenithica(); err != nil {
		return nil, err
	}
	return w, nil
}

// ensureZenithica instantiates the shared commons with every struct
// blueprint in the catalog, if a resume did not already bring it back.
func (w *World) ensureZenithica() error {
	if w.townships[ZenithicaName] != nil {
		return nil
	}
	ids := make([]string, 0, len(w.catalogs.Structs.ByID))
	for id := range w.catalogs.Structs.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	z, err := newTownship(ZenithicaName, ZenithicaName,
		"The crossroads settlement every soul can reach.", ids, w.catalogs)
	if err != nil {
		return err
	}
	w.townships[ZenithicaName] = z
	return nil
}

func (w *World) Run(ctx context.Context) error {
	hz := w.tune.TickRateHz
	if hz <= 0 {
		hz = 5
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case name := <-w.leave:
			pendingLeaves = append(pendingLeaves, name)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case resp := <-w.saveNow:
			resp <- w.ExportGameState()
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// Join delivers a handshake to the world loop. Called from transport
// goroutines; the response arrives on req.Resp at the next tick boundary.
func (w *World) Join(req JoinRequest) { w.join <- req }

// Leave marks a client as detached. The soul persists.
func (w *World) Leave(playerName string) { w.leave <- playerName }

// Submit queues an action batch for the next tick.
func (w *World) Submit(env ActionEnvelope) { w.inbox <- env }

// RequestGameState asks the loop for a full export, for shutdown saves.
func (w *World) RequestGameState() snapshot.GameStateV1 {
	resp := make(chan snapshot.GameStateV1, 1)
	w.saveNow <- resp
	return <-resp
}

// step applies leaves, then joins, then actions, in arrival order, then
// runs per-tick systems.
func (w *World) step(joins []JoinRequest, leaves []string, actions []ActionEnvelope) {
	started := time.Now()
	nowTick := w.tick

	for _, name := range leaves {
		delete(w.clients, strings.ToLower(name))
	}
	for _, req := range joins {
		resp := w.handleJoin(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
	}
	for _, env := range actions {
		soul := w.souls[strings.ToLower(env.PlayerName)]
		if soul == nil {
			continue
		}
		w.applyAct(soul.Player, env.Act, nowTick)
	}

	w.stepAmbient()

	if w.snapshotSink != nil && nowTick != 0 && w.tune.SaveEveryTicks > 0 &&
		nowTick%uint64(w.tune.SaveEveryTicks) == 0 {
		select {
		case w.snapshotSink <- w.ExportGameState():
		default:
			// Drop if the sink is backed up; the next interval retries.
		}
	}

	w.tick++
	w.metrics.publish(WorldMetrics{
		Tick:         w.tick,
		Souls:        len(w.souls),
		Clients:      len(w.clients),
		Townships:    len(w.townships),
		Chatventures: len(w.chatventures),
		StepMillis:   float64(time.Since(started).Microseconds()) / 1000,
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
	})
}

// handleJoin resolves a HELLO into an attached session. Exactly one of
// auth, login, create must be set.
func (w *World) handleJoin(req JoinRequest) JoinResponse {
	h := req.Hello
	set := 0
	for _, on := range []bool{h.Auth != nil, h.Login != nil, h.Create != nil} {
		if on {
			set++
		}
	}
	if set != 1 {
		return JoinResponse{Err: errors.Validation("hello must carry exactly one of auth, login, create")}
	}

	var (
		soul    *Soul
		token   string
		created bool
	)
	switch {
	case h.Create != nil:
		s, t, err := w.createSoul(h.Create)
		if err != nil {
			return JoinResponse{Err: err}
		}
		soul, token, created = s, t, true
	case h.Login != nil:
		if !w.vault.VerifyCredential(h.Login.Name, h.Login.Password) {
			return JoinResponse{Err: errors.Forbidden("bad name or password")}
		}
		soul = w.souls[strings.ToLower(h.Login.Name)]
		if soul == nil {
			return JoinResponse{Err: errors.NotFoundf("no soul named %q", h.Login.Name)}
		}
		w.vault.RevokeTokens(soul.Name)
		token = w.vault.IssueToken(soul.Name)
	case h.Auth != nil:
		name, err := w.vault.VerifyToken(h.Auth.Token)
		if err != nil {
			return JoinResponse{Err: err}
		}
		soul = w.souls[strings.ToLower(name)]
		if soul == nil {
			return JoinResponse{Err: errors.NotFoundf("no soul named %q", name)}
		}
		// Resume tokens rotate: the presented token dies with this
		// handshake and the WELCOME carries its replacement.
		w.vault.RevokeTokens(soul.Name)
		token = w.vault.IssueToken(soul.Name)
	}

	key := strings.ToLower(soul.Name)
	cl := &clientState{SessionID: w.sessionIDs.Generate(), Out: req.Out}
	w.clients[key] = cl
	w.logger.Printf("join name=%s session=%s created=%v", soul.Name, cl.SessionID, created)

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       cl.SessionID,
		Token:           token,
		Created:         created,
		Player:          buildPlayerPayload(soul.Player),
		Location:        w.buildLocationUpdate(soul.Player.Location),
		Catalogs: protocol.CatalogDigests{
			ItemsDigest:     w.catalogs.Items.Digest,
			AbilitiesDigest: w.catalogs.Abilities.Digest,
			StructsDigest:   w.catalogs.Structs.Digest,
			ClassesDigest:   w.catalogs.Classes.Digest,
		},
	}
	if created {
		w.sendEvent(key, protocol.EventUponCreation, protocol.UponCreation{
			Player: welcome.Player,
			Token:  token,
		})
	}
	return JoinResponse{PlayerName: soul.Name, Welcome: welcome}
}

// createSoul validates then builds a new soul with its own township.
// Nothing is registered until every check has passed.
func (w *World) createSoul(c *protocol.HelloCreate) (*Soul, string, error) {
	if err := auth.ValidateName(c.Name); err != nil {
		return nil, "", err
	}
	if err := auth.ValidatePassword(c.Password); err != nil {
		return nil, "", err
	}
	key := strings.ToLower(c.Name)
	if _, taken := w.souls[key]; taken {
		return nil, "", errors.Validation(fmt.Sprintf("the name %q is already claimed", c.Name))
	}
	classID := c.Class
	if classID == "" {
		classID = w.cfg.DefaultClass
	}
	class, ok := w.catalogs.Classes.ByID[classID]
	if !ok {
		return nil, "", errors.Validation(fmt.Sprintf("unknown class %q", classID))
	}

	player, err := NewPlayerFromClass(c.Name, class, w.catalogs)
	if err != nil {
		return nil, "", err
	}
	player.Icon = c.Icon
	player.Location = ZenithicaName

	townName := c.Name + "'s township"
	town, err := newTownship(townName, townName,
		fmt.Sprintf("A fledgling settlement raised by %s.", c.Name),
		w.cfg.StarterStructs, w.catalogs)
	if err != nil {
		return nil, "", err
	}

	if err := w.vault.Register(c.Name, c.Password); err != nil {
		return nil, "", err
	}
	token := w.vault.IssueToken(c.Name)

	soul := &Soul{Name: c.Name, Player: player, Township: town}
	w.souls[key] = soul
	w.townships[townName] = town
	w.townships[ZenithicaName].AppendHistory(
		newHistoryEntry("", fmt.Sprintf("%s awakens in %s.", c.Name, ZenithicaName), ZenithicaName, EntryEvent))
	return soul, token, nil
}

func (w *World) applyAct(agent *Entity, act protocol.ActMsg, nowTick uint64) {
	for _, inst := range act.Instants {
		w.applyInstant(agent, inst, nowTick)
	}
}

func (w *World) applyInstant(agent *Entity, inst protocol.InstantReq, nowTick uint64) {
	var err error
	switch inst.Type {
	case protocol.InstantInteractStruct:
		err = w.InvokeStruct(agent, inst.StructID, inst.Interaction)
	case protocol.InstantChooseOption:
		err = w.ResolveOption(w.targetChatventure(agent, inst.ChatventureID), agent, inst.Option)
	case protocol.InstantLeaveChatventure:
		err = w.LeaveChatventure(w.targetChatventure(agent, inst.ChatventureID), agent)
	case protocol.InstantEquipItem:
		err = w.equipInstant(agent, inst.ItemID, inst.Slot)
	case protocol.InstantVisitTownship:
		err = w.VisitTownship(agent, inst.Township)
	case protocol.InstantChat:
		err = w.applyChat(agent, inst, nowTick)
	default:
		err = errors.Validation(fmt.Sprintf("unknown instant type %q", inst.Type))
	}
	w.emitResult(agent, inst.ID, err)
	if err != nil {
		w.metrics.RejectAction()
	} else {
		w.metrics.AcceptAction()
	}
}

// targetChatventure falls back to the agent's current session when the
// request names none.
func (w *World) targetChatventure(agent *Entity, id string) string {
	if id != "" {
		return id
	}
	return agent.CurrentChatventure
}

// equipInstant equips an inventory item, or clears a slot when no item
// id is given. Either way the agent gets a fresh equipment_update.
func (w *World) equipInstant(agent *Entity, itemID, slot string) error {
	var item *Item
	if itemID == "" {
		if slot == "" {
			return errors.Validation("equip needs an item id or a slot to clear")
		}
		item = clearSlotItem(slot)
	} else {
		i := agent.InventoryIndex(itemID)
		if i < 0 {
			return errors.NotFoundf("no item %q in inventory", itemID)
		}
		item = agent.Inventory[i]
	}
	if err := EquipOne(agent, item, slot); err != nil {
		return err
	}
	w.sendEvent(strings.ToLower(agent.Name), protocol.EventEquipmentUpdate, buildEquipmentUpdate(agent))
	return nil
}

// VisitTownship relocates an agent. Leaving any live chatventure first
// keeps the two-way reference clean.
func (w *World) VisitTownship(agent *Entity, name string) error {
	t := w.townships[name]
	if t == nil {
		return errors.NotFoundf("township %q not found", name)
	}
	if agent.Location == name {
		return nil
	}
	if agent.CurrentChatventure != "" {
		if err := w.LeaveChatventure(agent.CurrentChatventure, agent); err != nil {
			return err
		}
	}

	from := agent.Location
	agent.Location = name
	for _, member := range agent.PartySorted() {
		member.Location = name
	}

	if prev := w.townships[from]; prev != nil {
		entry := newHistoryEntry(agent.Name, fmt.Sprintf("%s sets out for %s.", agent.Name, t.Nickname), from, EntryEvent)
		prev.AppendHistory(entry)
		w.broadcastTownship(prev, entry)
	}
	entry := newHistoryEntry(agent.Name, fmt.Sprintf("%s arrives in %s.", agent.Name, t.Nickname), name, EntryEvent)
	t.AppendHistory(entry)
	w.broadcastTownship(t, entry)

	w.sendEvent(strings.ToLower(agent.Name), protocol.EventLocationUpdate, w.buildLocationUpdate(name))
	return nil
}

// applyChat routes a chat line to the agent's chatventure or township.
func (w *World) applyChat(agent *Entity, inst protocol.InstantReq, nowTick uint64) error {
	if strings.TrimSpace(inst.Text) == "" {
		return errors.Validation("empty chat text")
	}
	if !agent.RateLimitAllow("chat", nowTick,
		uint64(w.tune.RateLimits.ChatWindowTicks), w.tune.RateLimits.ChatMax) {
		return errors.RateLimit("too many messages; slow down")
	}

	targetType, target := inst.TargetType, inst.Target
	if targetType == "" {
		if agent.CurrentChatventure != "" {
			targetType, target = "chatventure", agent.CurrentChatventure
		} else {
			targetType, target = "township", agent.Location
		}
	}

	switch targetType {
	case "chatventure":
		cv := w.chatventures[target]
		if cv == nil {
			return errors.NotFoundf("chatventure %q not found", target)
		}
		if _, ok := cv.Players[agent.Name]; !ok {
			return errors.Forbidden("not a participant of this chatventure")
		}
		w.broadcastChatventure(cv, newHistoryEntry(agent.Name, inst.Text, cv.ID, EntryChat))
		return nil
	case "township":
		t := w.townships[target]
		if t == nil {
			return errors.NotFoundf("township %q not found", target)
		}
		if agent.Location != t.Name {
			return errors.Forbidden("must be present to speak here")
		}
		entry := newHistoryEntry(agent.Name, inst.Text, t.Name, EntryChat)
		t.AppendHistory(entry)
		w.broadcastTownship(t, entry)
		return nil
	default:
		return errors.Validation(fmt.Sprintf("unknown chat target type %q", targetType))
	}
}

// --- event emission ---

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func (w *World) sendEvent(clientKey string, name string, payload any) {
	cl := w.clients[clientKey]
	if cl == nil {
		return
	}
	ev := protocol.EventMsg{
		Type:            protocol.TypeEvent,
		ProtocolVersion: protocol.Version,
		Name:            name,
		Payload:         payload,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	sendLatest(cl.Out, b)
}

func (w *World) emitResult(agent *Entity, forID string, err error) {
	res := protocol.ActionResult{For: forID, Accepted: err == nil}
	if err != nil {
		res.Code = protocol.WireCode(errors.GetCode(err))
		res.Message = errors.GetMessage(err)
	}
	w.sendEvent(strings.ToLower(agent.Name), protocol.EventActionResult, res)
}

// whisper delivers a history entry to one player only.
func (w *World) whisper(agent *Entity, entry HistoryEntry) {
	w.sendEvent(strings.ToLower(agent.Name), protocol.EventRoomMessage, protocol.RoomMessage{
		TargetType: "chatventure",
		Target:     entry.Origin,
		Entry:      wireHistoryEntry(entry),
	})
}

// broadcastChatventure appends an entry and pushes a full update to all
// participants.
func (w *World) broadcastChatventure(cv *Chatventure, entry HistoryEntry) {
	cv.AppendHistory(entry)
	update := buildChatventureUpdate(cv, w.tune.HistoryWindow, false)
	for name := range cv.Players {
		w.sendEvent(strings.ToLower(name), protocol.EventChatventureUpdate, update)
	}
}

func (w *World) emitChatventureTorndown(cv *Chatventure) {
	update := buildChatventureUpdate(cv, 0, true)
	for name := range cv.Players {
		w.sendEvent(strings.ToLower(name), protocol.EventChatventureUpdate, update)
	}
}

// broadcastTownship pushes a room message to every attached client whose
// player stands in the township.
func (w *World) broadcastTownship(t *Township, entry HistoryEntry) {
	msg := protocol.RoomMessage{
		TargetType: "township",
		Target:     t.Name,
		Entry:      wireHistoryEntry(entry),
	}
	for key, soul := range w.souls {
		if soul.Player.Location != t.Name {
			continue
		}
		w.sendEvent(key, protocol.EventRoomMessage, msg)
	}
}

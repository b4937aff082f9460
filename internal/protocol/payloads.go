package protocol

// ActionResult reports whether an instant was applied or rejected.
type ActionResult struct {
	For      string `json:"for"`
	Accepted bool   `json:"accepted"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

// PlayerPayload is a sanitized view of a player. Credential material is
// stripped before it ever reaches this type.
type PlayerPayload struct {
	Name      string              `json:"name"`
	Class     string              `json:"class,omitempty"`
	Icon      string              `json:"icon,omitempty"`
	Stats     map[string]int      `json:"stats"`
	Equipment map[string]*ItemRef `json:"equipment"`
	Inventory []ItemRef           `json:"inventory"`
	Abilities []AbilityRef        `json:"abilities"`
	Location  string              `json:"location"`

	CurrentChatventure string `json:"current_chatventure,omitempty"`
}

type ItemRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"item_type,omitempty"`
	Slot        string `json:"slot,omitempty"`
	Description string `json:"description,omitempty"`
}

type AbilityRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Tier        int    `json:"tier"`
	Active      bool   `json:"active"`
	ExpLevel    int    `json:"exp_level"`
	UseLevel    int    `json:"use_level"`
}

// EquipmentUpdate follows every successful equip/unequip.
type EquipmentUpdate struct {
	Equipment map[string]*ItemRef `json:"equipment"`
	Inventory []ItemRef           `json:"inventory"`
	Stats     map[string]int      `json:"stats"`
}

// LocationUpdate follows a township relocation.
type LocationUpdate struct {
	Name        string         `json:"name"`
	Nickname    string         `json:"nickname"`
	Description string         `json:"description"`
	History     []HistoryEntry `json:"history"`
	Structs     []StructRef    `json:"structs"`
}

type StructRef struct {
	ID          string   `json:"id"`
	Type        string   `json:"struct_type"`
	Nickname    string   `json:"nickname"`
	Description string   `json:"description"`
	Level       int      `json:"level"`
	Interactions []string `json:"interactions"`
}

// HistoryEntry is one chat/event line in a township or chatventure log.
type HistoryEntry struct {
	Agent     string `json:"agent"`
	Echo      string `json:"echo"`
	Timestamp int64  `json:"timestamp"`
	Origin    string `json:"origin"`
	EntryType string `json:"entry_type"`
}

// RoomMessage is a broadcast chat line.
type RoomMessage struct {
	TargetType string       `json:"target_type"`
	Target     string       `json:"target"`
	Entry      HistoryEntry `json:"entry"`
}

// ChatventureUpdate is pushed to every participant whenever a chatventure's
// staging, options, or participant set changes.
type ChatventureUpdate struct {
	ID       string            `json:"id"`
	Mode     string            `json:"mode"`
	Staging  string            `json:"staging"`
	Options  map[string]Option `json:"options"`
	Players  []string          `json:"players"`
	History  []HistoryEntry    `json:"history,omitempty"`
	TornDown bool              `json:"torn_down,omitempty"`
}

type Option struct {
	Echo         string   `json:"echo"`
	Description  string   `json:"description,omitempty"`
	WhoCanChoose string   `json:"who_can_choose,omitempty"`
	Flags        []string `json:"flags,omitempty"`
}

// UponCreation answers a successful player_creation.
type UponCreation struct {
	Player *PlayerPayload `json:"player"`
	Token  string         `json:"token"`
}

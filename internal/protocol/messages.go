package protocol

// HELLO (client -> server). Exactly one of Auth, Login, Create is set.
type HelloMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Auth            *HelloAuth   `json:"auth,omitempty"`
	Login           *HelloLogin  `json:"login,omitempty"`
	Create          *HelloCreate `json:"create,omitempty"`
	MaxQueue        int          `json:"max_queue,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token"`
}

type HelloLogin struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type HelloCreate struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Class    string `json:"class,omitempty"`
	Icon     string `json:"icon,omitempty"`
}

// WELCOME (server -> client).
type WelcomeMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	SessionID       string          `json:"session_id"`
	Token           string          `json:"token"`
	Created         bool            `json:"created,omitempty"`
	Player          *PlayerPayload  `json:"player,omitempty"`
	Location        *LocationUpdate `json:"location,omitempty"`
	Catalogs        CatalogDigests  `json:"catalogs"`
}

type CatalogDigests struct {
	ItemsDigest     string `json:"items_digest"`
	AbilitiesDigest string `json:"abilities_digest"`
	StructsDigest   string `json:"structs_digest"`
	ClassesDigest   string `json:"classes_digest"`
}

// ACT (client -> server): a batch of instant requests.
type ActMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Instants        []InstantReq `json:"instants"`
}

// Instant request types.
const (
	InstantInteractStruct   = "INTERACT_STRUCT"
	InstantChooseOption     = "CHOOSE_OPTION"
	InstantLeaveChatventure = "LEAVE_CHATVENTURE"
	InstantEquipItem        = "EQUIP_ITEM"
	InstantVisitTownship    = "VISIT_TOWNSHIP"
	InstantChat             = "CHAT"
)

type InstantReq struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	StructID    string `json:"struct_id,omitempty"`
	Interaction string `json:"interaction,omitempty"`

	ChatventureID string `json:"chatventure_id,omitempty"`
	Option        string `json:"option,omitempty"`

	Slot   string `json:"slot,omitempty"`
	ItemID string `json:"item_id,omitempty"`

	Township string `json:"township,omitempty"`

	Text       string `json:"text,omitempty"`
	TargetType string `json:"target_type,omitempty"` // "township" or "chatventure"
	Target     string `json:"target,omitempty"`
}

// EVENT (server -> client): a named event with a typed payload.
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name"`
	Payload         any    `json:"payload"`
}

// Event names.
const (
	EventActionResult      = "action_result"
	EventEquipmentUpdate   = "equipment_update"
	EventLocationUpdate    = "location_update"
	EventRoomMessage       = "room_message"
	EventChatventureUpdate = "chatventure_update"
	EventUponCreation      = "upon_creation"
)

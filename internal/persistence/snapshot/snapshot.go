package snapshot

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
	DateKey string `json:"date_key"`
}

// GameStateV1 is the full serializable world state.
type GameStateV1 struct {
	Header Header `json:"header"`

	SavedAtUnixMs int64 `json:"saved_at_unix_ms"`

	TickRate       int `json:"tick_rate_hz"`
	SaveEveryTicks int `json:"save_every_ticks,omitempty"`

	// Secrets maps a lowercase player name to its password hash.
	// Session tokens are deliberately absent.
	Secrets map[string]string `json:"secrets"`

	Souls        []SoulV1        `json:"souls"`
	Townships    []TownshipV1    `json:"townships"`
	Chatventures []ChatventureV1 `json:"chatventures,omitempty"`
}

type SoulV1 struct {
	Name     string   `json:"name"`
	Township string   `json:"township"`
	Player   EntityV1 `json:"player"`
}

type EntityV1 struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Tag   string `json:"tag"`
	Class string `json:"class,omitempty"`
	Icon  string `json:"icon,omitempty"`

	Stats     map[string]int     `json:"stats"`
	Equipment map[string]*ItemV1 `json:"equipment"`
	Inventory []ItemV1           `json:"inventory,omitempty"`
	Abilities []AbilityV1        `json:"abilities,omitempty"`

	Location string `json:"location"`
}

type ItemV1 struct {
	ID          string                  `json:"id"`
	BlueprintID string                  `json:"blueprint_id"`
	Type        string                  `json:"item_type,omitempty"`
	Build       string                  `json:"build,omitempty"`
	Slot        string                  `json:"slot,omitempty"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	EquipStats  map[string]StatBonusV1  `json:"equip_stats,omitempty"`
}

type StatBonusV1 struct {
	Flat int                `json:"flat"`
	Amp  map[string]float64 `json:"amp,omitempty"`
}

type AbilityV1 struct {
	ID          string   `json:"id"`
	BlueprintID string   `json:"blueprint_id"`
	CurrentName string   `json:"current_name"`
	Exp         int      `json:"exp"`
	ExpLevel    int      `json:"exp_level"`
	Use         int      `json:"use"`
	UseLevel    int      `json:"use_level"`
	Mods        []string `json:"mods,omitempty"`
}

type TownshipV1 struct {
	Name        string `json:"name"`
	Nickname    string `json:"nickname"`
	Description string `json:"description"`

	Population int            `json:"population,omitempty"`
	Resources  map[string]int `json:"resources,omitempty"`

	History []HistoryV1 `json:"history,omitempty"`
	NPCs    []EntityV1  `json:"npcs,omitempty"`
	Structs []StructV1  `json:"structs"`
}

type StructV1 struct {
	ID               string         `json:"id"`
	BlueprintID      string         `json:"blueprint_id"`
	Nickname         string         `json:"nickname"`
	Description      string         `json:"description"`
	InnerDescription string         `json:"inner_description,omitempty"`
	Level            int            `json:"level"`
	Exp              int            `json:"exp,omitempty"`
	Construction     int            `json:"construction,omitempty"`
	Boosts           map[string]int `json:"boosts,omitempty"`
	Inventory        []ItemV1       `json:"inventory,omitempty"`
}

type HistoryV1 struct {
	Agent     string `json:"agent,omitempty"`
	Echo      string `json:"echo"`
	Timestamp int64  `json:"timestamp"`
	Origin    string `json:"origin,omitempty"`
	EntryType string `json:"entry_type"`
}

// ChatventureV1 carries a live session across a save. Player entities
// are referenced by name; the importer re-links them to their souls and
// restores both sides of the struct reference.
type ChatventureV1 struct {
	ID      string `json:"id"`
	Mode    string `json:"mode"`
	Creator string `json:"creator"`

	PlayerNames []string   `json:"player_names"`
	Mobs        []EntityV1 `json:"mobs,omitempty"`

	JoinLimit int      `json:"join_limit,omitempty"`
	JoinRules []string `json:"join_rules,omitempty"`

	Options map[string]OptionV1 `json:"options,omitempty"`
	Events  []SubEventV1        `json:"events,omitempty"`
	Staging string              `json:"staging,omitempty"`
	History []HistoryV1         `json:"history,omitempty"`

	OriginTownship string `json:"origin_township"`
	OriginStruct   string `json:"origin_struct"`
	OriginKey      string `json:"origin_key"`
}

type OptionV1 struct {
	Echo         string   `json:"echo"`
	Description  string   `json:"description,omitempty"`
	WhoCanChoose string   `json:"who_can_choose,omitempty"`
	Flags        []string `json:"flags,omitempty"`
}

// SubEventV1 is one originator's independent sub-interaction lane.
type SubEventV1 struct {
	Owner    string            `json:"owner"`
	Type     string            `json:"type"`
	SeedData map[string]string `json:"seed_data,omitempty"`
	History  []HistoryV1       `json:"history,omitempty"`
}

// Encode serializes a game state: one JSON header line followed by a gob
// stream, the whole thing zstd-compressed. The header line lets ops
// tooling identify a blob without a full decode.
func Encode(state GameStateV1) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	hb, _ := json.Marshal(state.Header)
	if _, err := bw.Write(hb); err != nil {
		return nil, err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return nil, err
	}
	if err := gob.NewEncoder(bw).Encode(&state); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(blob []byte) (GameStateV1, error) {
	var state GameStateV1
	dec, err := zstd.NewReader(bytes.NewReader(blob))
	if err != nil {
		return state, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; the gob stream carries the header too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&state); err != nil {
		return state, fmt.Errorf("gob decode: %w", err)
	}
	return state, nil
}

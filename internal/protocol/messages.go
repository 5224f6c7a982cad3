package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name"`
	AgentID         string            `json:"agent_id"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
}

type HelloCapabilities struct {
	MaxQueue    int  `json:"max_queue,omitempty"`
	EventCursor bool `json:"event_cursor,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	RunID           string         `json:"run_id"`
	AgentID         string         `json:"agent_id"`
	Tick            uint64         `json:"tick"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	TickRateHz int `json:"tick_rate_hz"`
	// Bounds is [minX, minZ, maxX, maxZ] on the ground plane.
	Bounds [4]float64 `json:"bounds"`
}

type CatalogDigests struct {
	ResourcesDigest string `json:"resources_digest"`
	UnitsDigest     string `json:"units_digest"`
	BuildingsDigest string `json:"buildings_digest"`
	TuningDigest    string `json:"tuning_digest,omitempty"`
}

// ORDER (client -> server)
type OrderMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	OrderID         string      `json:"order_id"`
	Kind            string      `json:"kind"`
	Target          *[2]float64 `json:"target,omitempty"`
	BackToResource  bool        `json:"back_to_resource,omitempty"`
}

// ACTION_RESULT (server -> client): acceptance or rejection of one order.
type ActionResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	OrderID         string `json:"order_id"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick"`
}

// STATE (server -> client): one frame per tick for the bound agent.
type StateMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Tick            uint64     `json:"tick"`
	Agent           AgentState `json:"agent"`
	Events          []Event    `json:"events"`
}

type AgentState struct {
	ID       string      `json:"id"`
	UnitType string      `json:"unit_type"`
	Pos      [2]float64  `json:"pos"`
	Mode     string      `json:"mode"`
	Speed    string      `json:"speed"`
	Target   *[2]float64 `json:"target,omitempty"`
	Carried  ItemStack   `json:"carried"`
	Immobile bool        `json:"immobile,omitempty"`
	Busy     bool        `json:"busy,omitempty"`
	HP       float64     `json:"hp"`
}

type ItemStack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

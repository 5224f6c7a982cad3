package protocol

// EVENT_BATCH_REQ (client -> server): fetch the bound agent's retained events
// after a cursor.
type EventBatchReqMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	SinceCursor     uint64 `json:"since_cursor"`
	Limit           int    `json:"limit"`
}

// EVENT_BATCH (server -> client)
type EventBatchMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id"`
	Events          []Event `json:"events"`
	NextCursor      uint64  `json:"next_cursor"`
}

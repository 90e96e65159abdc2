// Package events defines the message contract pushed to dashboard clients
// over the websocket connection.
package events

// Event types carried in the message envelope.
const (
	// EventDatasetUpdated is broadcast after an upload changes the workbook.
	EventDatasetUpdated = "dataset_updated"

	// EventHeartbeat is sent by clients to keep the connection alive.
	EventHeartbeat = "heartbeat"
)

// Message is the envelope for every websocket frame the server sends.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// DatasetUpdate is the payload of an EventDatasetUpdated message.
type DatasetUpdate struct {
	TotalRows int    `json:"total_rows"`
	Source    string `json:"source,omitempty"`
}

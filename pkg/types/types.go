package types

import "encoding/json"

// Event names on the wire. Inbound events come from clients, outbound events
// are broadcast to room subscribers. The names match the browser client's
// vocabulary exactly and must not change independently of it.
const (
	EventJoinPresentation = "join-presentation"
	EventAddText          = "add-text"
	EventDraw             = "draw"

	EventUserJoined = "user-joined"
	EventUserLeft   = "user-left"
	EventTextAdded  = "text-added"
)

// Participant is one connection's membership record within a presentation.
// ConnectionID is the server-assigned id of the live connection; nicknames
// are free-form and not required to be unique within a room.
type Participant struct {
	ConnectionID string `json:"connectionId"`
	Nickname     string `json:"nickname"`
}

// Presentation is a shared collaborative workspace. IDs are positive,
// assigned monotonically at creation, and never reused. Roster order is
// join order.
type Presentation struct {
	ID      int64         `json:"id"`
	Title   string        `json:"title"`
	Creator string        `json:"creator"`
	Roster  []Participant `json:"roster"`
}

// Envelope frames every message on a websocket connection.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinRequest asks to join a presentation's room.
type JoinRequest struct {
	PresentationID int64  `json:"presentationId"`
	Nickname       string `json:"nickname"`
}

// TextData is a text fragment placed on the canvas. Position is an [x, y]
// pair in client coordinates; the server relays it untouched.
type TextData struct {
	Content  string     `json:"content"`
	Position [2]float64 `json:"position"`
}

// AddTextRequest carries a text fragment for broadcast to the sender's room.
type AddTextRequest struct {
	PresentationID int64    `json:"presentationId"`
	TextData       TextData `json:"textData"`
}

// DrawRequest carries stroke data for broadcast. DrawingData is opaque to
// the server and forwarded verbatim.
type DrawRequest struct {
	PresentationID int64           `json:"presentationId"`
	DrawingData    json.RawMessage `json:"drawingData"`
}

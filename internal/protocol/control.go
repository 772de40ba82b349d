package protocol

// Control message type discriminators (§6.2).
const (
	TypeBeamOffer      = "beam_offer"
	TypeBeamAccept     = "beam_accept"
	TypeBeamEnd        = "beam_end"
	TypeInput          = "input"
	TypeKeyframeReq    = "keyframe_request"
	TypeCursorState    = "cursor_state"
	TypePing           = "ping"
	TypePong           = "pong"
)

// Envelope is the minimal shape every control message shares: a type
// discriminator. Callers decode into a specific payload type once the
// discriminator has been read.
type Envelope struct {
	Type string `json:"type"`
}

// BeamOffer is sent sender -> receiver to start a beam.
type BeamOffer struct {
	Type        string `json:"type"`
	SenderName  string `json:"senderName"`
	WindowTitle string `json:"windowTitle"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	HasAudio    bool   `json:"hasAudio"`
	BundleID    string `json:"bundleID"`
}

// NewBeamOffer builds a BeamOffer with the type field already set.
func NewBeamOffer(senderName, windowTitle string, width, height int, hasAudio bool, bundleID string) BeamOffer {
	return BeamOffer{
		Type:        TypeBeamOffer,
		SenderName:  senderName,
		WindowTitle: windowTitle,
		Width:       width,
		Height:      height,
		HasAudio:    hasAudio,
		BundleID:    bundleID,
	}
}

// BeamAccept is sent receiver -> sender with the UDP ports it chose.
type BeamAccept struct {
	Type      string `json:"type"`
	VideoPort int    `json:"videoPort"`
	AudioPort int    `json:"audioPort"`
}

// NewBeamAccept builds a BeamAccept with the type field already set.
func NewBeamAccept(videoPort, audioPort int) BeamAccept {
	return BeamAccept{Type: TypeBeamAccept, VideoPort: videoPort, AudioPort: audioPort}
}

// BeamEnd carries no payload.
type BeamEnd struct {
	Type string `json:"type"`
}

// NewBeamEnd builds a BeamEnd message.
func NewBeamEnd() BeamEnd { return BeamEnd{Type: TypeBeamEnd} }

// InputMessage wraps a normalized input event (§6.3), receiver -> sender.
type InputMessage struct {
	Type  string     `json:"type"`
	Event InputEvent `json:"event"`
}

// NewInputMessage builds an InputMessage wrapping event.
func NewInputMessage(event InputEvent) InputMessage {
	return InputMessage{Type: TypeInput, Event: event}
}

// InputEvent event.type discriminators (§6.3).
const (
	EventMouseMove = "mouseMove"
	EventMouseDown = "mouseDown"
	EventMouseUp   = "mouseUp"
	EventMouseDrag = "mouseDrag"
	EventScroll    = "scroll"
	EventKeyDown   = "keyDown"
	EventKeyUp     = "keyUp"
)

// InputEvent is the normalized, tagged input event payload of §6.3. Not
// every field is meaningful for every Type; unused fields are omitted on
// the wire.
type InputEvent struct {
	Type      string  `json:"type"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	DeltaX    float64 `json:"deltaX,omitempty"`
	DeltaY    float64 `json:"deltaY,omitempty"`
	Button    string  `json:"button,omitempty"`
	KeyCode   int     `json:"keyCode,omitempty"`
	Shift     bool    `json:"shift,omitempty"`
	Control   bool    `json:"control,omitempty"`
	Option    bool    `json:"option,omitempty"`
	Command   bool    `json:"command,omitempty"`
	Text      string  `json:"text,omitempty"`
}

// KeyframeRequest carries no payload; receiver -> sender.
type KeyframeRequest struct {
	Type string `json:"type"`
}

// NewKeyframeRequest builds a KeyframeRequest message.
func NewKeyframeRequest() KeyframeRequest { return KeyframeRequest{Type: TypeKeyframeReq} }

// CursorState is sent sender -> receiver whenever local cursor visibility
// changes (§4.10, §4.11.1).
type CursorState struct {
	Type    string `json:"type"`
	Visible bool   `json:"visible"`
}

// NewCursorState builds a CursorState message.
func NewCursorState(visible bool) CursorState {
	return CursorState{Type: TypeCursorState, Visible: visible}
}

// Ping / Pong carry no payload.
type Ping struct {
	Type string `json:"type"`
}

// Pong carries no payload.
type Pong struct {
	Type string `json:"type"`
}

// NewPing builds a Ping message.
func NewPing() Ping { return Ping{Type: TypePing} }

// NewPong builds a Pong message.
func NewPong() Pong { return Pong{Type: TypePong} }

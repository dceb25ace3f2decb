package chat

import "time"

type ConnID string

type MessageKind string

const (
	KindSystem MessageKind = "system"
	KindNormal MessageKind = "normal"
	KindImage  MessageKind = "image"
	KindCode   MessageKind = "code"
)

// Event is anything the core delivers to a connection. EventName is the
// name the client listens on.
type Event interface {
	EventName() string
}

// Sink is the core's only view of a live connection. Send must not block:
// it is called while a room is locked.
type Sink interface {
	Send(event Event)
	Close()
}

type Member struct {
	ID       ConnID `json:"id"`
	Username string `json:"username"`
}

type Message struct {
	Type     MessageKind `json:"type"`
	Username string      `json:"username,omitempty"`
	Text     string      `json:"text"`
	RawTime  Timestamp   `json:"rawTime"`
}

func (Message) EventName() string { return "message" }

type JoinSuccess struct {
	MyUsername string    `json:"myUsername"`
	Roomname   string    `json:"roomname"`
	IsHost     bool      `json:"isHost"`
	Password   *string   `json:"password"`
	History    []Message `json:"history"`
}

func (JoinSuccess) EventName() string { return "joinSuccess" }

type ErrorMsg struct {
	Text string `json:"text"`
}

func (ErrorMsg) EventName() string { return "errorMsg" }

type RoomInfo struct {
	Roomname string   `json:"roomname"`
	Users    []Member `json:"users"`
	HostID   ConnID   `json:"hostId"`
	Password *string  `json:"password"`
}

func (RoomInfo) EventName() string { return "updateRoomInfo" }

type Kicked struct{}

func (Kicked) EventName() string { return "kicked" }

type RoomDeleted struct{}

func (RoomDeleted) EventName() string { return "roomDeleted" }

// Timestamp marshals as RFC 3339 in UTC with millisecond precision.
type Timestamp time.Time

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(timestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	parsed, err := time.Parse(`"`+time.RFC3339Nano+`"`, string(data))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

func passwordField(password string) *string {
	if password == "" {
		return nil
	}
	return &password
}

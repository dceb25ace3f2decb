package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"roomchat/chat"
)

const (
	sendBufferSize = 256
	writeWait      = 10 * time.Second
)

var (
	ErrUndefinedEvent   = errors.New("undefined event")
	ErrMalformedMessage = errors.New("malformed message")
	ErrPayloadTooLarge  = errors.New("payload too large")
)

type JoinRoomMessage struct {
	Username string `json:"username"`
	Roomname string `json:"roomname"`
	Password string `json:"password"`
}

type ChatMessage struct {
	Text string           `json:"text"`
	Type chat.MessageKind `json:"type"`
}

type KickUserMessage struct {
	TargetID chat.ConnID `json:"targetId"`
}

type PromoteUserMessage struct {
	TargetID chat.ConnID `json:"targetId"`
}

type DeleteRoomMessage struct{}

type UpdatePasswordMessage struct {
	NewPassword string `json:"newPassword"`
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ClientWebsocket is one browser connection. It implements chat.Sink:
// events are queued and written by WritePump.
type ClientWebsocket struct {
	id         chat.ConnID
	conn       net.Conn
	reader     *wsutil.Reader
	maxPayload int64
	pongWait   time.Duration
	logger     ConnIPLogger

	send      chan chat.Event
	closed    chan struct{}
	closeOnce sync.Once
	writeLock sync.Mutex
}

// NewClientWebsocket wraps an upgraded connection. A peer that sends no
// frame, pongs included, for pongWait is treated as gone.
func NewClientWebsocket(id chat.ConnID, conn net.Conn, maxPayload int64, pongWait time.Duration, logger ConnIPLogger) *ClientWebsocket {
	c := &ClientWebsocket{
		id:         id,
		conn:       conn,
		maxPayload: maxPayload,
		pongWait:   pongWait,
		logger:     logger,
		send:       make(chan chat.Event, sendBufferSize),
		closed:     make(chan struct{}),
	}
	c.reader = &wsutil.Reader{
		Source:         conn,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		OnIntermediate: c.handleControl,
	}
	return c
}

func (c *ClientWebsocket) Send(event chat.Event) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.send <- event:
	default:
		c.logger.SendBufferFull()
		c.Close()
	}
}

// Close asks WritePump to flush what is queued and close the connection.
func (c *ClientWebsocket) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *ClientWebsocket) pingPeriod() time.Duration {
	return c.pongWait * 9 / 10
}

func (c *ClientWebsocket) WritePump() {
	ticker := time.NewTicker(c.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			if err := c.writeEvent(event); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.writeFrame(ws.NewPingFrame(nil)); err != nil {
				c.Close()
				return
			}
		case <-c.closed:
			c.flush()
			c.writeFrame(ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusNormalClosure, "")))
			return
		}
	}
}

func (c *ClientWebsocket) flush() {
	for {
		select {
		case event := <-c.send:
			if err := c.writeEvent(event); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *ClientWebsocket) writeEvent(event chat.Event) error {
	encoded, err := json.Marshal(struct {
		Event string     `json:"event"`
		Data  chat.Event `json:"data"`
	}{Event: event.EventName(), Data: event})
	if err != nil {
		return err
	}
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return wsutil.WriteServerText(c.conn, encoded)
}

func (c *ClientWebsocket) writeFrame(frame ws.Frame) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteFrame(c.conn, frame)
}

// handleControl answers pings and close frames. The reply is built in a
// buffer first so it goes out as one write under writeLock.
func (c *ClientWebsocket) handleControl(hdr ws.Header, r io.Reader) error {
	if hdr.OpCode == ws.OpPong {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	}
	var reply bytes.Buffer
	err := wsutil.ControlFrameHandler(&reply, ws.StateServerSide)(hdr, r)
	if reply.Len() > 0 {
		c.writeLock.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		c.conn.Write(reply.Bytes())
		c.writeLock.Unlock()
	}
	return err
}

func (c *ClientWebsocket) readText() ([]byte, error) {
	for {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		hdr, err := c.reader.NextFrame()
		if err != nil {
			return nil, err
		}
		if hdr.OpCode.IsControl() {
			if err := c.handleControl(hdr, c.reader); err != nil {
				return nil, err
			}
			continue
		}
		if hdr.OpCode&ws.OpText == 0 {
			if err := c.reader.Discard(); err != nil {
				return nil, err
			}
			continue
		}
		if hdr.Length > c.maxPayload {
			return nil, ErrPayloadTooLarge
		}
		data, err := io.ReadAll(io.LimitReader(c.reader, c.maxPayload+1))
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > c.maxPayload {
			return nil, ErrPayloadTooLarge
		}
		return data, nil
	}
}

// ReadMessage returns one of the inbound message structs.
func (c *ClientWebsocket) ReadMessage() (any, error) {
	data, err := c.readText()
	if err != nil {
		return nil, err
	}
	message, err := UnmarshalJSON[envelope](data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	switch message.Event {
	case "joinRoom":
		return decodeData[JoinRoomMessage](message.Data)
	case "chatMessage":
		return decodeData[ChatMessage](message.Data)
	case "kickUser":
		return decodeData[KickUserMessage](message.Data)
	case "promoteUser":
		return decodeData[PromoteUserMessage](message.Data)
	case "deleteRoom":
		return DeleteRoomMessage{}, nil
	case "updatePassword":
		return decodeData[UpdatePasswordMessage](message.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUndefinedEvent, message.Event)
	}
}

func decodeData[T any](data json.RawMessage) (any, error) {
	if len(data) == 0 {
		var empty T
		return empty, nil
	}
	parsed, err := UnmarshalJSON[T](data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return parsed, nil
}

func dispatch(hub *chat.Hub, id chat.ConnID, message any) error {
	switch m := message.(type) {
	case JoinRoomMessage:
		return hub.Join(id, m.Username, m.Roomname, m.Password)
	case ChatMessage:
		return hub.Submit(id, m.Type, m.Text)
	case KickUserMessage:
		return hub.Kick(id, m.TargetID)
	case PromoteUserMessage:
		return hub.Promote(id, m.TargetID)
	case DeleteRoomMessage:
		return hub.DeleteRoom(id)
	case UpdatePasswordMessage:
		return hub.UpdatePassword(id, m.NewPassword)
	}
	return nil
}

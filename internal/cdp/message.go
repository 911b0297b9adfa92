package cdp

import (
	"encoding/json"
	"fmt"
)

// Request is one outbound protocol command. IDs are unique only within a
// session; replies are matched by the (ID, SessionID) pair.
type Request struct {
	ID        int64  `json:"id"`
	Method    string `json:"method"`
	Params    any    `json:"params,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Frame is one decoded inbound protocol message: either a *Response
// completing a prior Request, or an unsolicited *Event.
type Frame interface {
	frame()
}

// Response is the terminal reply to a Request. Exactly one of Result or
// Error is set.
type Response struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"sessionId,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *Error          `json:"error,omitempty"`
}

// Event is an unsolicited notification. It carries no id and is never
// correlated to a request; subscribers match on (SessionID, Method).
type Event struct {
	Method    string          `json:"method"`
	SessionID string          `json:"sessionId,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

func (*Response) frame() {}
func (*Event) frame()    {}

// Error is the remote error detail of a failed command.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("cdp error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

// probe mirrors every field an inbound message can carry. ID is a pointer so
// a present-but-zero id still marks the message as a response rather than an
// event.
type probe struct {
	ID        *int64          `json:"id"`
	Method    string          `json:"method"`
	Result    json.RawMessage `json:"result"`
	Error     *Error          `json:"error"`
	Params    json.RawMessage `json:"params"`
	SessionID string          `json:"sessionId"`
}

// parseFrame decodes one inbound message. A message carrying an id is a
// response and must also carry a result or an error; a message without an id
// must carry a method and is an event. Anything else is a malformed frame,
// which is fatal to the connection.
func parseFrame(data []byte) (Frame, error) {
	var msg probe
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &DecodeError{Data: data, cause: err}
	}

	if msg.ID != nil {
		if msg.Result == nil && msg.Error == nil {
			return nil, &DecodeError{Data: data}
		}
		return &Response{
			ID:        *msg.ID,
			SessionID: msg.SessionID,
			Result:    msg.Result,
			Error:     msg.Error,
		}, nil
	}

	if msg.Method != "" {
		return &Event{
			Method:    msg.Method,
			SessionID: msg.SessionID,
			Params:    msg.Params,
		}, nil
	}

	return nil, &DecodeError{Data: data}
}

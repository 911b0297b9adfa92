// Package target tracks the page targets attached over one debugger
// connection and keeps their session table current from target lifecycle
// events.
package target

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mkeeler/cdpwire/internal/cdp"
)

// Info describes one attached page session.
type Info struct {
	SessionID string `json:"sessionId"`
	TargetID  string `json:"targetId"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Active    bool   `json:"active"`
}

// targetInfo is the wire shape of Target.targetInfo.
type targetInfo struct {
	TargetID string `json:"targetId"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

type attachedParams struct {
	SessionID  string     `json:"sessionId"`
	TargetInfo targetInfo `json:"targetInfo"`
}

type detachedParams struct {
	SessionID string `json:"sessionId"`
}

type infoChangedParams struct {
	TargetInfo targetInfo `json:"targetInfo"`
}

// entry holds internal session state.
type entry struct {
	sessionID string
	targetID  string
	url       string
	title     string
}

// Registry tracks sessions attached over the root browser session. The
// first attached session becomes active; removing the active session
// promotes the most recently attached survivor.
type Registry struct {
	root *cdp.Session

	mu       sync.RWMutex
	sessions map[string]*entry // keyed by sessionID
	activeID string
	order    []string // session IDs in attachment order, newest last
}

// NewRegistry creates a registry over the root (browser-level) session.
func NewRegistry(root *cdp.Session) *Registry {
	return &Registry{
		root:     root,
		sessions: make(map[string]*entry),
	}
}

// Session returns a command/event scope for an attached session id.
func (r *Registry) Session(sessionID string) *cdp.Session {
	return r.root.Conn().Session(sessionID)
}

// Run consumes target lifecycle events and keeps the table current until
// ctx ends or the connection closes. A closed connection is a normal end,
// not an error.
func (r *Registry) Run(ctx context.Context) error {
	stream := r.root.DecodeEvents(map[string]cdp.EventDecoder{
		"Target.attachedToTarget": func(params json.RawMessage) (any, error) {
			var p attachedParams
			err := json.Unmarshal(params, &p)
			return p, err
		},
		"Target.detachedFromTarget": func(params json.RawMessage) (any, error) {
			var p detachedParams
			err := json.Unmarshal(params, &p)
			return p, err
		},
		"Target.targetInfoChanged": func(params json.RawMessage) (any, error) {
			var p infoChangedParams
			err := json.Unmarshal(params, &p)
			return p, err
		},
	})
	defer stream.Close()

	for {
		evt, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, cdp.ErrConnectionClosed) {
				return nil
			}
			return err
		}

		switch p := evt.Value.(type) {
		case attachedParams:
			r.add(p.SessionID, p.TargetInfo)
		case detachedParams:
			r.remove(p.SessionID)
		case infoChangedParams:
			r.updateByTargetID(p.TargetInfo)
		}
	}
}

// AttachAll attaches a flat session to every open page target and returns
// the attached session ids in target order.
func (r *Registry) AttachAll(ctx context.Context) ([]string, error) {
	var targets struct {
		TargetInfos []targetInfo `json:"targetInfos"`
	}
	if err := r.root.CallInto(ctx, "Target.getTargets", nil, &targets); err != nil {
		return nil, err
	}

	var sessionIDs []string
	for _, info := range targets.TargetInfos {
		if info.Type != "page" {
			continue
		}
		sessionID, err := r.Attach(ctx, info.TargetID)
		if err != nil {
			return sessionIDs, err
		}
		r.add(sessionID, info)
		sessionIDs = append(sessionIDs, sessionID)
	}
	return sessionIDs, nil
}

// Attach attaches a flat session to one target and records it. An empty
// target id is the protocol's "no such target" sentinel and is rejected
// here, at the boundary.
func (r *Registry) Attach(ctx context.Context, targetID string) (string, error) {
	if targetID == "" {
		return "", errors.New("target: empty target id")
	}

	var attached struct {
		SessionID string `json:"sessionId"`
	}
	err := r.root.CallInto(ctx, "Target.attachToTarget", map[string]any{
		"targetId": targetID,
		"flatten":  true,
	}, &attached)
	if err != nil {
		return "", fmt.Errorf("target: attach %s: %w", targetID, err)
	}

	// The Target.attachedToTarget event carries the same information, but
	// recording from the response too keeps the table right when Run is
	// not consuming events.
	r.add(attached.SessionID, targetInfo{TargetID: targetID})
	return attached.SessionID, nil
}

// add records a new session. The first session becomes active. Re-adding a
// known session only refreshes its target info.
func (r *Registry) add(sessionID string, info targetInfo) {
	if sessionID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[sessionID]; ok {
		if info.URL != "" {
			existing.url = info.URL
		}
		if info.Title != "" {
			existing.title = info.Title
		}
		if info.TargetID != "" {
			existing.targetID = info.TargetID
		}
		return
	}

	r.sessions[sessionID] = &entry{
		sessionID: sessionID,
		targetID:  info.TargetID,
		url:       info.URL,
		title:     info.Title,
	}
	r.order = append(r.order, sessionID)

	if r.activeID == "" {
		r.activeID = sessionID
	}
}

// remove drops a session. If it was active, the most recently attached
// survivor becomes active.
func (r *Registry) remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return
	}
	delete(r.sessions, sessionID)

	for i, id := range r.order {
		if id == sessionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.activeID == sessionID {
		r.activeID = ""
		if len(r.order) > 0 {
			r.activeID = r.order[len(r.order)-1]
		}
	}
}

// updateByTargetID refreshes url and title for the session attached to a
// target.
func (r *Registry) updateByTargetID(info targetInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.sessions {
		if e.targetID == info.TargetID {
			if info.URL != "" {
				e.url = info.URL
			}
			if info.Title != "" {
				e.title = info.Title
			}
			return
		}
	}
}

// SetActive marks a session active. Returns false if it is unknown.
func (r *Registry) SetActive(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return false
	}
	r.activeID = sessionID
	return true
}

// Active returns the active session, or nil if none is attached.
func (r *Registry) Active() *Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[r.activeID]
	if !ok {
		return nil
	}
	info := e.info(true)
	return &info
}

// Get returns a session by id, or nil if unknown.
func (r *Registry) Get(sessionID string) *Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	info := e.info(sessionID == r.activeID)
	return &info
}

// All returns every attached session in attachment order.
func (r *Registry) All() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		if e, ok := r.sessions[id]; ok {
			result = append(result, e.info(id == r.activeID))
		}
	}
	return result
}

// Count returns the number of attached sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Find matches sessions by session id prefix first, then by
// case-insensitive title substring.
func (r *Registry) Find(query string) []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if query == "" {
		return nil
	}

	var matches []Info
	for _, id := range r.order {
		e := r.sessions[id]
		if strings.HasPrefix(e.sessionID, query) {
			matches = append(matches, e.info(id == r.activeID))
		}
	}
	if len(matches) > 0 {
		return matches
	}

	queryLower := strings.ToLower(query)
	for _, id := range r.order {
		e := r.sessions[id]
		if strings.Contains(strings.ToLower(e.title), queryLower) {
			matches = append(matches, e.info(id == r.activeID))
		}
	}
	return matches
}

func (e *entry) info(active bool) Info {
	return Info{
		SessionID: e.sessionID,
		TargetID:  e.targetID,
		URL:       e.url,
		Title:     e.title,
		Active:    active,
	}
}

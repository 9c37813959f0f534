package domain

import (
	"fmt"
	"strings"
)

// State is a conversation dialog state.
type State int

const (
	StateMainMenu State = iota
	StateAskTopic
	StateChooseTopic
	StateJoinDecision
	StateSupport
)

var stateNames = [...]string{
	StateMainMenu:     "main_menu",
	StateAskTopic:     "ask_topic",
	StateChooseTopic:  "choose_topic",
	StateJoinDecision: "join_decision",
	StateSupport:      "support",
}

// States lists every dialog state in declaration order.
func States() []State {
	return []State{StateMainMenu, StateAskTopic, StateChooseTopic, StateJoinDecision, StateSupport}
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name so stored sessions survive enum reordering.
func (s State) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stateNames) {
		return nil, fmt.Errorf("domain: unknown state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	name := strings.TrimSpace(string(text))
	for i, n := range stateNames {
		if n == name {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("domain: unknown state %q", name)
}

// Scratchpad holds the topic proposed during the join decision.
type Scratchpad struct {
	Topic string `json:"topic,omitempty"`
	Query string `json:"query,omitempty"`
}

// Session is the per-user dialog state.
type Session struct {
	UserID     int64      `json:"user_id"`
	State      State      `json:"state"`
	Scratchpad Scratchpad `json:"scratchpad"`
}

// NewSession returns a fresh session positioned at the main menu.
func NewSession(userID int64) Session {
	return Session{UserID: userID, State: StateMainMenu}
}

// Reset returns to the main menu and drops the scratchpad.
func (s *Session) Reset() {
	s.State = StateMainMenu
	s.Scratchpad = Scratchpad{}
}

package dialog

import (
	"strings"

	"InterestBot/internal/domain"
)

// Trigger is a classified inbound text event.
type Trigger int

const (
	TriggerUnknown Trigger = iota
	TriggerStart
	TriggerSearch
	TriggerMyGroups
	TriggerProfile
	TriggerPopular
	TriggerHelp
	TriggerSupport
	TriggerGoodbye
	TriggerUnknownCommand
	TriggerText
	TriggerAccept
	TriggerDecline
	TriggerOther
	TriggerBack
	TriggerMenu
	TriggerCancel
)

var triggerNames = [...]string{
	TriggerUnknown:        "unknown",
	TriggerStart:          "start",
	TriggerSearch:         "search",
	TriggerMyGroups:       "my_groups",
	TriggerProfile:        "profile",
	TriggerPopular:        "popular",
	TriggerHelp:           "help",
	TriggerSupport:        "support",
	TriggerGoodbye:        "goodbye",
	TriggerUnknownCommand: "unknown_command",
	TriggerText:           "text",
	TriggerAccept:         "accept",
	TriggerDecline:        "decline",
	TriggerOther:          "other",
	TriggerBack:           "back",
	TriggerMenu:           "menu",
	TriggerCancel:         "cancel",
}

func (t Trigger) String() string {
	if t >= 0 && int(t) < len(triggerNames) {
		return triggerNames[t]
	}
	return "trigger?"
}

// Registry maps the exact texts understood in one state to triggers.
type Registry struct {
	triggers map[string]Trigger
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{triggers: map[string]Trigger{}}
}

// Register binds one or more texts to a trigger; later registrations win.
func (r *Registry) Register(trigger Trigger, texts ...string) *Registry {
	if r.triggers == nil {
		r.triggers = map[string]Trigger{}
	}
	for _, text := range texts {
		r.triggers[text] = trigger
	}
	return r
}

// Resolve returns the trigger bound to text.
func (r *Registry) Resolve(text string) (Trigger, bool) {
	trigger, ok := r.triggers[text]
	return trigger, ok
}

// commands are slash commands accepted in every state.
var commands = NewRegistry().
	Register(TriggerStart, "/start").
	Register(TriggerHelp, "/help").
	Register(TriggerProfile, "/profile").
	Register(TriggerMyGroups, "/groups").
	Register(TriggerSupport, "/support")

var mainMenuLabels = NewRegistry().
	Register(TriggerSearch, LabelSearch).
	Register(TriggerMyGroups, LabelMyGroups).
	Register(TriggerProfile, LabelProfile).
	Register(TriggerPopular, LabelPopular).
	Register(TriggerHelp, LabelHelp).
	Register(TriggerSupport, LabelSupport)

var greetings = NewRegistry().
	Register(TriggerStart, "привет", "здравствуй", "hello", "hi", "привет!", "здравствуй!").
	Register(TriggerGoodbye, "пока", "до свидания", "пока!", "до свидания!")

var chooseTopicLabels = NewRegistry().
	Register(TriggerDecline, LabelDecline).
	Register(TriggerBack, LabelBack).
	Register(TriggerMenu, LabelMenu)

var joinDecisionLabels = NewRegistry().
	Register(TriggerAccept, LabelAccept).
	Register(TriggerDecline, LabelDecline).
	Register(TriggerOther, LabelOther).
	Register(TriggerMenu, LabelMenu)

var supportLabels = NewRegistry().
	Register(TriggerMenu, LabelMenu).
	Register(TriggerCancel, LabelCancel)

// commandName extracts "/cmd" from "/cmd@bot args".
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}

// Classify maps inbound text to a trigger for the given state.
func Classify(state domain.State, text string) Trigger {
	text = strings.TrimSpace(text)
	if text == "" {
		return TriggerUnknown
	}

	if cmd := commandName(text); cmd != "" {
		if trigger, ok := commands.Resolve(cmd); ok {
			return trigger
		}
	}

	switch state {
	case domain.StateMainMenu:
		if trigger, ok := mainMenuLabels.Resolve(text); ok {
			return trigger
		}
		if trigger, ok := greetings.Resolve(strings.ToLower(text)); ok {
			return trigger
		}
		if strings.HasPrefix(text, "/") {
			return TriggerUnknownCommand
		}
		return TriggerText
	case domain.StateAskTopic:
		return TriggerText
	case domain.StateChooseTopic:
		if trigger, ok := chooseTopicLabels.Resolve(text); ok {
			return trigger
		}
		return TriggerText
	case domain.StateJoinDecision:
		if trigger, ok := joinDecisionLabels.Resolve(text); ok {
			return trigger
		}
		return TriggerUnknown
	case domain.StateSupport:
		if trigger, ok := supportLabels.Resolve(text); ok {
			return trigger
		}
		return TriggerText
	default:
		return TriggerUnknown
	}
}

package dialog

import (
	"context"

	"InterestBot/internal/domain"
)

type turn struct {
	msg     domain.Message
	session *domain.Session
}

type handler func(s *Service, ctx context.Context, t *turn) domain.Reply

// commandTransitions apply in every state.
var commandTransitions = map[Trigger]handler{
	TriggerStart:    (*Service).start,
	TriggerHelp:     (*Service).help,
	TriggerProfile:  (*Service).profile,
	TriggerMyGroups: (*Service).myGroups,
	TriggerSupport:  (*Service).supportPrompt,
}

// transitions lists every state specific edge. Pairs missing here re-prompt
// in place.
var transitions = map[domain.State]map[Trigger]handler{
	domain.StateMainMenu: {
		TriggerStart:          (*Service).start,
		TriggerSearch:         (*Service).askTopic,
		TriggerMyGroups:       (*Service).myGroups,
		TriggerProfile:        (*Service).profile,
		TriggerPopular:        (*Service).popular,
		TriggerHelp:           (*Service).help,
		TriggerSupport:        (*Service).supportPrompt,
		TriggerGoodbye:        (*Service).goodbye,
		TriggerUnknownCommand: (*Service).unknownCommand,
		TriggerText:           (*Service).suggestSearch,
	},
	domain.StateAskTopic: {
		TriggerText: (*Service).query,
	},
	domain.StateChooseTopic: {
		TriggerText:    (*Service).chooseTopic,
		TriggerDecline: (*Service).goodbye,
		TriggerBack:    (*Service).backToMenu,
		TriggerMenu:    (*Service).backToMenu,
	},
	domain.StateJoinDecision: {
		TriggerAccept:  (*Service).join,
		TriggerDecline: (*Service).declineJoin,
		TriggerOther:   (*Service).popular,
		TriggerMenu:    (*Service).backToMenu,
	},
	domain.StateSupport: {
		TriggerText:   (*Service).supportMessage,
		TriggerCancel: (*Service).cancelSupport,
		TriggerMenu:   (*Service).backToMenu,
	},
}

func lookup(state domain.State, trigger Trigger) handler {
	if h, ok := commandTransitions[trigger]; ok {
		return h
	}
	if h, ok := transitions[state][trigger]; ok {
		return h
	}
	return (*Service).reprompt
}

package queue

// Action is something staff, customers or the scheduler do to a ticket
type Action string

const (
	ActionCall         Action = "call"
	ActionCallAgain    Action = "call_again"
	ActionStartServing Action = "start_serving"
	ActionServe        Action = "serve"
	ActionCancel       Action = "cancel"
	ActionSkip         Action = "skip"
	ActionNoShow       Action = "no_show"
	ActionTransfer     Action = "transfer"
	ActionExpire       Action = "expire"
	ActionExtend       Action = "extend"
)

// transitionMap lists the statuses each action may be performed from
var transitionMap = map[Action][]TicketStatus{
	ActionCall:         {TicketWaiting},
	ActionCallAgain:    {TicketWaiting, TicketCalled},
	ActionStartServing: {TicketCalled},
	ActionServe:        {TicketCalled, TicketServing},
	ActionCancel:       {TicketWaiting, TicketCalled},
	ActionSkip:         {TicketWaiting, TicketCalled},
	ActionNoShow:       {TicketCalled},
	ActionTransfer:     {TicketWaiting, TicketCalled},
	ActionExpire:       {TicketWaiting},
	ActionExtend:       {TicketWaiting},
}

// CanPerform reports whether action is allowed on a ticket in status from
func CanPerform(action Action, from TicketStatus) bool {
	for _, s := range transitionMap[action] {
		if s == from {
			return true
		}
	}
	return false
}

package bot

// Action is the closed set of things a matched trigger or option can do.
// Keeping it an enum makes adding a new action a compile-time exercise
// instead of a stringly-typed runtime surprise.
type Action int

const (
	ActionUnknown Action = iota
	ActionMenu           // navigate to TargetMenuKey (push current onto the stack)
	ActionMessage        // reply with a canned text, no navigation change
	ActionHuman          // freeze automated routing pending a live agent
	ActionEnd            // restart the conversation at the root menu
	ActionGotoHome       // clear the stack, go to the root menu
	ActionGotoPrevious   // pop the stack one step
)

func ParseAction(s string) Action {
	switch s {
	case "menu", "goto_menu":
		return ActionMenu
	case "message":
		return ActionMessage
	case "human":
		return ActionHuman
	case "end":
		return ActionEnd
	case "goto_home":
		return ActionGotoHome
	case "goto_previous":
		return ActionGotoPrevious
	default:
		return ActionUnknown
	}
}

func (a Action) String() string {
	switch a {
	case ActionMenu:
		return "menu"
	case ActionMessage:
		return "message"
	case ActionHuman:
		return "human"
	case ActionEnd:
		return "end"
	case ActionGotoHome:
		return "goto_home"
	case ActionGotoPrevious:
		return "goto_previous"
	default:
		return "unknown"
	}
}

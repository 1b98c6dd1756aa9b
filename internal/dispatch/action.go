package dispatch

import (
	"strings"

	"github.com/m3rciful/pixabot/internal/apperr"
	"github.com/m3rciful/pixabot/internal/session"
)

// Callback keys. They travel inside Telegram callback data, so keep them short.
const (
	KeyVerify           = "verify"
	KeyStartSearch      = "search"
	KeyFilterMenu       = "filters"
	KeyPickFilter       = "filter"
	KeySearchWithFilter = "search_type"
	KeyNext             = "next"
	KeyPrev             = "prev"
	KeySelect           = "select"
	KeyBackToMain       = "main"
	KeyAdmin            = "admin"
)

// Keys lists every callback key the dispatcher understands.
var Keys = []string{
	KeyVerify, KeyStartSearch, KeyFilterMenu, KeyPickFilter, KeySearchWithFilter,
	KeyNext, KeyPrev, KeySelect, KeyBackToMain, KeyAdmin,
}

// Action is the closed set of button presses.
type Action interface {
	// Encode returns the callback key and payload for the button.
	Encode() (key, payload string)
	action()
}

type (
	Verify           struct{}
	StartSearch      struct{}
	FilterMenu       struct{}
	PickFilter       struct{ Filter session.Filter }
	SearchWithFilter struct{}
	NextResult       struct{}
	PrevResult       struct{}
	SelectResult     struct{}
	BackToMain       struct{}
	AdminMenu        struct{ Op AdminOp }
)

func (Verify) Encode() (string, string)           { return KeyVerify, "" }
func (StartSearch) Encode() (string, string)      { return KeyStartSearch, "" }
func (FilterMenu) Encode() (string, string)       { return KeyFilterMenu, "" }
func (a PickFilter) Encode() (string, string)     { return KeyPickFilter, string(a.Filter) }
func (SearchWithFilter) Encode() (string, string) { return KeySearchWithFilter, "" }
func (NextResult) Encode() (string, string)       { return KeyNext, "" }
func (PrevResult) Encode() (string, string)       { return KeyPrev, "" }
func (SelectResult) Encode() (string, string)     { return KeySelect, "" }
func (BackToMain) Encode() (string, string)       { return KeyBackToMain, "" }
func (a AdminMenu) Encode() (string, string)      { return KeyAdmin, string(a.Op) }

func (Verify) action()           {}
func (StartSearch) action()      {}
func (FilterMenu) action()       {}
func (PickFilter) action()       {}
func (SearchWithFilter) action() {}
func (NextResult) action()       {}
func (PrevResult) action()       {}
func (SelectResult) action()     {}
func (BackToMain) action()       {}
func (AdminMenu) action()        {}

// AdminOp names an admin console operation.
type AdminOp string

const (
	OpPanel         AdminOp = "panel"
	OpStats         AdminOp = "stats"
	OpBan           AdminOp = "ban"
	OpUnban         AdminOp = "unban"
	OpBroadcast     AdminOp = "broadcast"
	OpAddChannel    AdminOp = "add_channel"
	OpRemoveChannel AdminOp = "remove_channel"
	OpHistory       AdminOp = "history"
)

var adminAliases = map[string]AdminOp{
	"":               OpPanel,
	"panel":          OpPanel,
	"stats":          OpStats,
	"ban":            OpBan,
	"unban":          OpUnban,
	"broadcast":      OpBroadcast,
	"add-channel":    OpAddChannel,
	"addchannel":     OpAddChannel,
	"add_channel":    OpAddChannel,
	"remove-channel": OpRemoveChannel,
	"removechannel":  OpRemoveChannel,
	"remove_channel": OpRemoveChannel,
	"history":        OpHistory,
	"log":            OpHistory,
}

// ParseAdminOp resolves a subcommand or callback payload, aliases included.
func ParseAdminOp(raw string) (AdminOp, bool) {
	op, ok := adminAliases[strings.ToLower(strings.TrimSpace(raw))]
	return op, ok
}

// DecodeAction turns callback data back into an Action.
func DecodeAction(key, payload string) (Action, error) {
	const op = "dispatch.decode"
	switch strings.TrimSpace(key) {
	case KeyVerify:
		return Verify{}, nil
	case KeyStartSearch:
		return StartSearch{}, nil
	case KeyFilterMenu:
		return FilterMenu{}, nil
	case KeyPickFilter:
		f, ok := session.ParseFilter(payload)
		if !ok {
			return nil, apperr.Errorf(apperr.InvalidInput, op, "unknown filter %q", payload)
		}
		return PickFilter{Filter: f}, nil
	case KeySearchWithFilter:
		return SearchWithFilter{}, nil
	case KeyNext:
		return NextResult{}, nil
	case KeyPrev:
		return PrevResult{}, nil
	case KeySelect:
		return SelectResult{}, nil
	case KeyBackToMain:
		return BackToMain{}, nil
	case KeyAdmin:
		adminOp, ok := ParseAdminOp(payload)
		if !ok {
			return nil, apperr.Errorf(apperr.InvalidInput, op, "unknown admin op %q", payload)
		}
		return AdminMenu{Op: adminOp}, nil
	}
	return nil, apperr.Errorf(apperr.InvalidInput, op, "unknown action %q", key)
}

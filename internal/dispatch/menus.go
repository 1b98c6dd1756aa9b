package dispatch

import (
	"strings"

	"github.com/m3rciful/pixabot/internal/apperr"
	"github.com/m3rciful/pixabot/internal/browser"
	"github.com/m3rciful/pixabot/internal/session"
	"github.com/m3rciful/pixabot/internal/view"
)

const (
	textBanned         = "🚫 You have been banned from using this bot."
	textNotInitialized = "ℹ️ Please send /start first."
	textSubscribeFirst = "Please subscribe to the channels first"
	textUnknownCommand = "🤔 Unknown command. Send /help to see what the bot can do."
	textUseMenu        = "👇 Use the menu buttons below, or press 🔍 Search to look something up."
	textEmptyQuery     = "❌ The search keyword is empty. Press 🔍 Search and try again."
	textProviderError  = "⚠️ The search service is unavailable right now. Please try again later."
	textEndOfResults   = "No more results in this direction"
	textSelected       = "Result selected"
)

var filterLabels = map[session.Filter]string{
	session.FilterAll:          "🌐 All",
	session.FilterPhoto:        "📷 Photos",
	session.FilterIllustration: "🎨 Illustrations",
	session.FilterVector:       "📐 Vectors",
	session.FilterVideo:        "🎬 Videos",
	session.FilterMusic:        "🎵 Music",
	session.FilterGIF:          "🎞 GIFs",
}

func filterLabel(f session.Filter) string {
	if label, ok := filterLabels[f]; ok {
		return label
	}
	return string(f)
}

func button(text string, a Action) view.Button {
	key, payload := a.Encode()
	return view.Button{Text: text, Key: key, Payload: payload}
}

func backRow() view.Row {
	return view.Row{button("« Back to menu", BackToMain{})}
}

func mainMenu(isAdmin bool) view.Message {
	rows := []view.Row{
		{button("🔍 Search", StartSearch{}), button("🎛 Search type", FilterMenu{})},
	}
	if isAdmin {
		rows = append(rows, view.Row{button("🛠 Admin panel", AdminMenu{Op: OpPanel})})
	}
	return view.Text("👋 Welcome to the Pixabay search bot!\n\n"+
		"Press 🔍 Search and send a keyword to find free photos, videos and music.", rows...)
}

func helpMessage(version string) view.Message {
	lines := []string{
		"ℹ️ How to use the bot",
		"",
		"1. Press 🔍 Search and send a keyword.",
		"2. Browse the results with « and » and press 🥇 Select to keep one.",
		"3. Use 🎛 Search type to narrow results to photos, videos, music and more.",
		"",
		"/start - main menu",
		"/help - this message",
	}
	if version != "" {
		lines = append(lines, "", "Version: "+version)
	}
	return view.Text(strings.Join(lines, "\n"), backRow())
}

// subscription lists the channels the user still has to join, one link button each.
func subscription(missing []string) view.Message {
	var b strings.Builder
	b.WriteString("📢 To use the bot, please subscribe to these channels first:\n\n")
	b.WriteString(strings.Join(missing, "\n"))
	b.WriteString("\n\nThen press ✅ Verify.")

	rows := make([]view.Row, 0, len(missing)+1)
	for _, ch := range missing {
		rows = append(rows, view.Row{{Text: "Join " + ch, URL: "https://t.me/" + strings.TrimPrefix(ch, "@")}})
	}
	rows = append(rows, view.Row{button("✅ Verify", Verify{})})
	return view.Failure(apperr.AccessDenied, b.String(), rows...)
}

func filterMenu(selected session.Filter) view.Message {
	options := append([]session.Filter{session.FilterAll}, session.Filters...)
	buttons := make([]view.Button, 0, len(options))
	for _, f := range options {
		label := filterLabel(f)
		if f == selected {
			label = "✅ " + label
		}
		buttons = append(buttons, button(label, PickFilter{Filter: f}))
	}
	rows := view.Chunk(buttons, 2)
	rows = append(rows,
		view.Row{button("🔍 Search with this type", SearchWithFilter{})},
		backRow(),
	)
	return view.Text("🎛 Choose the media type\nCurrent: "+filterLabel(selected), rows...)
}

func queryPrompt(f session.Filter) view.Message {
	return view.Text("🔍 Send your search keyword.\nType: "+filterLabel(f), backRow())
}

func resultMessage(spec browser.RenderSpec) view.Message {
	msg := view.Message{Text: spec.Caption, MediaKind: spec.Kind, MediaURL: spec.MediaURL}
	if spec.Final {
		msg.Rows = []view.Row{{button("🔍 New search", StartSearch{}), button("« Menu", BackToMain{})}}
		return msg
	}
	var nav view.Row
	if spec.HasPrev {
		nav = append(nav, button("« Previous", PrevResult{}))
	}
	if spec.HasNext {
		nav = append(nav, button("Next »", NextResult{}))
	}
	if len(nav) > 0 {
		msg.Rows = append(msg.Rows, nav)
	}
	if spec.Selectable {
		msg.Rows = append(msg.Rows, view.Row{button("🥇 Select", SelectResult{})})
	}
	return msg
}

func emptyResult(query string) view.Message {
	return view.Failure(apperr.EmptyResult,
		"😕 Nothing found for \""+query+"\". Try another keyword.",
		view.Row{button("🔍 Search again", StartSearch{})},
		backRow(),
	)
}

func adminRows() []view.Row {
	return []view.Row{
		{button("📊 Stats", AdminMenu{Op: OpStats}), button("🗂 History", AdminMenu{Op: OpHistory})},
		{button("🚫 Ban", AdminMenu{Op: OpBan}), button("✅ Unban", AdminMenu{Op: OpUnban})},
		{button("📢 Broadcast", AdminMenu{Op: OpBroadcast})},
		{button("➕ Add channel", AdminMenu{Op: OpAddChannel}), button("➖ Remove channel", AdminMenu{Op: OpRemoveChannel})},
		backRow(),
	}
}

func adminBackRow() view.Row {
	return view.Row{button("« Admin panel", AdminMenu{Op: OpPanel})}
}

// withNotice turns a reply into a callback answer as well.
func withNotice(msg view.Message, notice string, alert bool) view.Message {
	msg.Notice = notice
	msg.Alert = alert
	return msg
}

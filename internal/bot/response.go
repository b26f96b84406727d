package bot

import (
	"fmt"
	"sort"
	"strings"

	"chatbot-gateway/internal/models"
)

// Synthesized navigation rows appended after the configured options.
const (
	RowIDBack = "nav_back"
	RowIDHome = "nav_home"
)

// Row is one selectable entry of an interactive response.
type Row struct {
	ID          string
	Title       string
	Description string
}

// Response is what the state machine decided to say. The dispatcher picks
// the transport shape (list, image, plain text) from its fields.
type Response struct {
	MenuKey     string // non-empty when this renders a menu (anti-repeat applies)
	Title       string
	Text        string
	ImageURL    string
	ButtonLabel string
	Rows        []Row
}

// SubstituteVariables replaces {key} placeholders with instance variables.
// Unknown placeholders are left untouched.
func SubstituteVariables(text string, vars map[string]string) string {
	for k, v := range vars {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text
}

// BuildMenuResponse renders a menu into a response: substituted message text
// plus the option rows, with Back appended when the stack is non-empty and
// Home when the menu is not already the root.
func BuildMenuResponse(menu *models.Menu, vars map[string]string, stack Stack) *Response {
	resp := &Response{
		MenuKey:  menu.MenuKey,
		Title:    SubstituteVariables(menu.Title, vars),
		Text:     SubstituteVariables(menu.MessageText, vars),
		ImageURL: menu.ImageURL,
	}

	options := DedupeOptions(menu.Options)
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].OptionNumber < options[j].OptionNumber
	})
	for _, o := range options {
		resp.Rows = append(resp.Rows, Row{
			ID:          OptionRowID(&o),
			Title:       fmt.Sprintf("%d. %s", o.OptionNumber, SubstituteVariables(o.OptionText, vars)),
			Description: SubstituteVariables(o.Description, vars),
		})
	}

	if len(stack) > 0 {
		resp.Rows = append(resp.Rows, Row{ID: RowIDBack, Title: "⬅ Voltar", Description: "ou digite 0"})
	}
	if menu.MenuKey != HomeMenuKey {
		resp.Rows = append(resp.Rows, Row{ID: RowIDHome, Title: "🏠 Menu principal", Description: "ou digite 00"})
	}
	return resp
}

// PlainText renders the response as a single text message: the body followed
// by one line per row. Used when the instance prefers plain text and as the
// degradation target when interactive sends exhaust every phone variant.
func (r *Response) PlainText() string {
	var b strings.Builder
	if r.Title != "" {
		b.WriteString("*" + r.Title + "*\n\n")
	}
	b.WriteString(r.Text)
	for _, row := range r.Rows {
		b.WriteString("\n")
		b.WriteString(row.Title)
	}
	return b.String()
}

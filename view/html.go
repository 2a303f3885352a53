package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// DefaultTitle heads the board page.
const DefaultTitle = "Mergington High School"

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"unregisterURL":  UnregisterURL,
	"noParticipants": func() string { return NoParticipantsText },
}).ParseFS(templateFiles, "templates/*.tmpl"))

// StaticFS returns the stylesheet tree served under /static/.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// UnregisterURL is the target of a participant's delete control.
func UnregisterURL(activity, email string) string {
	return "/unregister?" + url.Values{"activity": {activity}, "email": {email}}.Encode()
}

// ConfirmPrompt is the question asked before unregistering a participant.
func ConfirmPrompt(activity, email string) string {
	return fmt.Sprintf("Are you sure you want to unregister %s from %s?", email, activity)
}

type boardData struct {
	Title     string
	Page      Page
	CSRFField template.HTML
}

type confirmData struct {
	Title     string
	Activity  string
	Email     string
	Prompt    string
	CSRFField template.HTML
}

// WriteHTML renders page as the board document. csrfField is inserted
// verbatim into every form and may be empty.
func WriteHTML(w io.Writer, page Page, csrfField template.HTML) error {
	return templates.ExecuteTemplate(w, "board.html.tmpl", boardData{
		Title:     DefaultTitle,
		Page:      page,
		CSRFField: csrfField,
	})
}

// WriteConfirmHTML renders the confirmation step for removing email from activity.
func WriteConfirmHTML(w io.Writer, activity, email string, csrfField template.HTML) error {
	return templates.ExecuteTemplate(w, "confirm.html.tmpl", confirmData{
		Title:     DefaultTitle,
		Activity:  activity,
		Email:     email,
		Prompt:    ConfirmPrompt(activity, email),
		CSRFField: csrfField,
	})
}

// Package view turns a directory snapshot and UI selection into a render
// description of the activity board.
//
// Render is a pure function; the HTML and text writers only format the Page
// it returns, so rendering the same Page twice always yields the same output.
package view

import (
	"fmt"

	"github.com/nomis52/activityboard/directory"
	"github.com/nomis52/activityboard/notice"
)

// Fixed strings shown on the board.
const (
	LoadingText        = "Loading activities..."
	LoadErrorText      = "Could not load activities."
	NoParticipantsText = "No participants yet"
	PlaceholderLabel   = "-- Select an activity --"
)

// LoadState is the state of the most recent directory fetch.
type LoadState int

const (
	// StateIdle means no fetch has been issued yet.
	StateIdle LoadState = iota
	// StateLoading means a fetch is in flight.
	StateLoading
	// StateRendered means the last committed fetch succeeded.
	StateRendered
	// StateError means the last committed fetch failed.
	StateError
)

// String returns the string representation of the load state.
func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateRendered:
		return "rendered"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s LoadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *LoadState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "loading":
		*s = StateLoading
	case "rendered":
		*s = StateRendered
	case "error":
		*s = StateError
	default:
		return fmt.Errorf("unknown load state %q", text)
	}
	return nil
}

// Selection is the transient state of the signup form.
type Selection struct {
	Activity string `json:"activity"`
	Email    string `json:"email"`
}

// Participant identifies one roster entry.
type Participant struct {
	Activity string
	Email    string
}

// Input is everything Render needs.
type Input struct {
	// Directory is nil until a fetch has succeeded.
	Directory *directory.Directory
	// Version of the committed snapshot Directory was derived from.
	Version   uint64
	State     LoadState
	Selection Selection
	Message   notice.Message
	// Pending lists participants added optimistically and not yet confirmed
	// by a fetch. They must already be present in Directory.
	Pending []Participant
}

// Page is the render description of the whole board.
type Page struct {
	State LoadState `json:"state"`
	// ListText replaces the cards while loading or after a failed fetch.
	ListText  string         `json:"list_text,omitempty"`
	Cards     []Card         `json:"cards"`
	Options   []Option       `json:"options"`
	Selection Selection      `json:"selection"`
	Message   notice.Message `json:"message"`
	Version   uint64         `json:"version"`
}

// Card renders one activity.
type Card struct {
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	ScheduleText       string           `json:"schedule_text"`
	CapacityText       string           `json:"capacity_text"`
	ParticipantsHeader string           `json:"participants_header"`
	Participants       []ParticipantRow `json:"participants"`
}

// Empty reports whether the card shows the no-participants placeholder.
func (c Card) Empty() bool {
	return len(c.Participants) == 0
}

// ParticipantRow is one roster entry with a delete control.
type ParticipantRow struct {
	Activity string `json:"activity"`
	Email    string `json:"email"`
	// Pending marks rows added optimistically.
	Pending bool `json:"pending,omitempty"`
}

// Option is one entry in the activity selector.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Render builds the Page for in.
func Render(in Input) Page {
	page := Page{
		State:     in.State,
		Selection: in.Selection,
		Message:   in.Message,
		Version:   in.Version,
		Cards:     []Card{},
	}

	page.Options = []Option{{
		Value:    "",
		Label:    PlaceholderLabel,
		Selected: in.Selection.Activity == "",
	}}

	if in.Directory == nil {
		if in.State == StateError {
			page.ListText = LoadErrorText
		} else if in.State == StateLoading {
			page.ListText = LoadingText
		}
		return page
	}

	for _, name := range in.Directory.Names() {
		page.Options = append(page.Options, Option{
			Value:    name,
			Label:    name,
			Selected: name == in.Selection.Activity,
		})
	}

	if in.State == StateError {
		page.ListText = LoadErrorText
		return page
	}

	pending := make(map[Participant]bool, len(in.Pending))
	for _, p := range in.Pending {
		pending[p] = true
	}
	for _, a := range in.Directory.Activities() {
		page.Cards = append(page.Cards, renderCard(a, pending))
	}
	return page
}

func renderCard(a directory.Activity, pending map[Participant]bool) Card {
	count := len(a.Participants)
	card := Card{
		Title:              a.Name,
		Description:        a.Description,
		ScheduleText:       "Schedule: " + a.Schedule,
		CapacityText:       fmt.Sprintf("Capacity: %d / %d", count, a.MaxParticipants),
		ParticipantsHeader: fmt.Sprintf("Participants (%d)", count),
		Participants:       make([]ParticipantRow, 0, count),
	}
	for _, email := range a.Participants {
		card.Participants = append(card.Participants, ParticipantRow{
			Activity: a.Name,
			Email:    email,
			Pending:  pending[Participant{Activity: a.Name, Email: email}],
		})
	}
	return card
}

// CardByTitle returns the card for the named activity.
func (p Page) CardByTitle(title string) (Card, bool) {
	for _, c := range p.Cards {
		if c.Title == title {
			return c, true
		}
	}
	return Card{}, false
}

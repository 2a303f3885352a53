package view

import (
	"bufio"
	"fmt"
	"io"
)

// WriteText renders page for a terminal.
func WriteText(w io.Writer, page Page) error {
	bw := bufio.NewWriter(w)

	if page.ListText != "" {
		fmt.Fprintln(bw, page.ListText)
	}
	for i, card := range page.Cards {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "== %s ==\n", card.Title)
		if card.Description != "" {
			fmt.Fprintln(bw, card.Description)
		}
		fmt.Fprintln(bw, card.ScheduleText)
		fmt.Fprintln(bw, card.CapacityText)
		fmt.Fprintln(bw, card.ParticipantsHeader)
		if card.Empty() {
			fmt.Fprintf(bw, "  %s\n", NoParticipantsText)
			continue
		}
		for _, p := range card.Participants {
			suffix := ""
			if p.Pending {
				suffix = " (pending)"
			}
			fmt.Fprintf(bw, "  - %s%s\n", p.Email, suffix)
		}
	}

	if page.Message.Visible {
		fmt.Fprintf(bw, "\n[%s] %s\n", page.Message.Kind, page.Message.Text)
	}

	return bw.Flush()
}

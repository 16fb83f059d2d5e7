package domain

import (
	"fmt"
	"strings"
)

// DigestSeparator terminates every ticket block in a digest.
const DigestSeparator = "---"

// FormatDigest renders tickets as one text block: a header naming the search
// description and match count, then one fixed-layout block per ticket in input order.
func FormatDigest(description string, tickets []TicketSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d ticket(s) matching \"%s\":\n", len(tickets), description)

	for _, t := range tickets {
		b.WriteString("\n")
		writeTicketBlock(&b, t)
	}

	return b.String()
}

// NoTicketsMessage is the reply for a search that matched nothing.
func NoTicketsMessage(description string) string {
	return fmt.Sprintf("No tickets found matching \"%s\".", description)
}

func writeTicketBlock(b *strings.Builder, t TicketSummary) {
	fmt.Fprintf(b, "ID: %s\n", t.Identifier)
	fmt.Fprintf(b, "Title: %s\n", t.Title)
	fmt.Fprintf(b, "Status: %s\n", t.Status)
	fmt.Fprintf(b, "Assignee: %s\n", t.Assignee)
	fmt.Fprintf(b, "Project: %s\n", t.Project)
	fmt.Fprintf(b, "URL: %s\n", t.URL)
	fmt.Fprintf(b, "Description: %s\n", t.Description)
	b.WriteString(DigestSeparator + "\n")
}

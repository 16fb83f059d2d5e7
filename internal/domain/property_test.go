package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestTruncationProperties verifies the description limit for arbitrary input.
func TestTruncationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	// Slices up to 400 runes so both sides of the limit are exercised.
	parameters.MaxSize = 400

	properties := gopter.NewProperties(parameters)

	properties.Property("truncated description never exceeds limit plus marker", prop.ForAll(
		func(rs []rune) bool {
			got := TruncateDescription(string(rs))
			return utf8.RuneCountInString(got) <= DescriptionLimit+len(truncationMarker)
		},
		gen.SliceOf(gen.RuneRange('a', 'ÿ')),
	))

	properties.Property("short descriptions are unchanged and long ones keep their prefix", prop.ForAll(
		func(rs []rune) bool {
			s := string(rs)
			got := TruncateDescription(s)
			if len(rs) <= DescriptionLimit {
				return got == s
			}
			return got == string(rs[:DescriptionLimit])+truncationMarker
		},
		gen.SliceOf(gen.RuneRange('a', 'ÿ')),
	))

	properties.TestingRun(t)
}

// TestDigestProperties verifies the digest layout for any number of tickets.
func TestDigestProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = MaxTickets

	properties := gopter.NewProperties(parameters)

	properties.Property("one block per ticket in input order", prop.ForAll(
		func(ids []string, description string) bool {
			tickets := make([]TicketSummary, len(ids))
			for i, id := range ids {
				tickets[i] = NewTicketSummary(TicketFields{Identifier: id, Title: "t"})
			}

			digest := FormatDigest(description, tickets)

			header := fmt.Sprintf("Found %d ticket(s) matching \"%s\":\n", len(ids), description)
			if !strings.HasPrefix(digest, header) {
				return false
			}
			if strings.Count(digest, "\n"+DigestSeparator+"\n") != len(ids) {
				return false
			}

			pos := 0
			for _, id := range ids {
				idx := strings.Index(digest[pos:], "ID: "+id+"\n")
				if idx < 0 {
					return false
				}
				pos += idx + 1
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
		gen.AlphaString(),
	))

	properties.Property("digest is deterministic", prop.ForAll(
		func(id, title, description string) bool {
			tickets := []TicketSummary{NewTicketSummary(TicketFields{Identifier: id, Title: title})}
			return FormatDigest(description, tickets) == FormatDigest(description, tickets)
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestResponseMapperProperties verifies that ticket outcomes always produce an envelope.
func TestResponseMapperProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	mapper := NewResponseMapper()

	retrievalError := func(n int) error {
		switch n {
		case 0:
			return nil
		case 1:
			return &MissingCredentialError{Variable: CredentialEnvVar}
		case 2:
			return &NetworkError{Err: errors.New("connection refused")}
		case 3:
			return &TransportError{StatusCode: 500, Body: "boom"}
		case 4:
			return &ServiceError{Messages: []string{"bad filter"}}
		default:
			return &MalformedResponseError{Reason: "missing data.issues.nodes"}
		}
	}

	properties.Property("isError is set exactly when retrieval failed", prop.ForAll(
		func(count, kind int, description string) bool {
			err := retrievalError(kind)
			tickets := make([]TicketSummary, count)
			resp := mapper.MapTickets(description, tickets, err)
			if resp == nil || len(resp.Content) != 1 || resp.Content[0].Type != ContentTypeText {
				return false
			}
			return resp.IsError == (err != nil)
		},
		gen.IntRange(0, MaxTickets),
		gen.IntRange(0, 5),
		gen.AlphaString(),
	))

	properties.Property("invalid argument fields survive mapping", prop.ForAll(
		func(fields []string) bool {
			rpcErr := mapper.MapError(&InvalidArgumentsError{Capability: "c", Fields: fields})
			data, ok := rpcErr.Data.(map[string]any)
			if rpcErr.Code != InvalidParams || !ok {
				return false
			}
			got, ok := data["fields"].([]string)
			return ok && strings.Join(got, ",") == strings.Join(fields, ",")
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}

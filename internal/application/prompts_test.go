package application

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"linear-mcp-server/internal/domain"
)

func TestCommitMessagePrompt(t *testing.T) {
	dispatcher := newTestDispatcher(&fakeRetriever{})

	result, err := dispatcher.GetPrompt(context.Background(), PromptGenerateCommitMessage,
		stringArguments(map[string]string{"taskDescription": "Add SSO login"}))
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}

	if len(result.Messages) != 1 || result.Messages[0].Role != "user" {
		t.Fatalf("Expected one user message, got %+v", result.Messages)
	}
	text := result.Messages[0].Content.Text
	if !strings.Contains(text, "Add SSO login") || !strings.Contains(text, "Conventional Commits") {
		t.Errorf("Unexpected prompt text: %q", text)
	}
}

func TestCommitMessagePrompt_MissingTask(t *testing.T) {
	dispatcher := newTestDispatcher(&fakeRetriever{})

	_, err := dispatcher.GetPrompt(context.Background(), PromptGenerateCommitMessage, domain.Arguments{})
	var invalid *domain.InvalidArgumentsError
	if !errors.As(err, &invalid) || !reflect.DeepEqual(invalid.Fields, []string{"taskDescription"}) {
		t.Errorf("Expected taskDescription to be reported, got %v", err)
	}
}

func TestStartTaskPrompt(t *testing.T) {
	dispatcher := newTestDispatcher(&fakeRetriever{})

	for _, branchType := range []string{"feature", "bugfix"} {
		t.Run(branchType, func(t *testing.T) {
			result, err := dispatcher.GetPrompt(context.Background(), PromptStartTask,
				stringArguments(map[string]string{"taskDescription": "fix login redirect", "branchType": branchType}))
			if err != nil {
				t.Fatalf("GetPrompt failed: %v", err)
			}

			text := result.Messages[0].Content.Text
			steps := []string{
				`1. Call the get-linear-tickets tool with the description "fix login redirect"`,
				"2. Show the tickets to the user",
				"3. Create a git branch named " + branchType + "/<ticket-id>-<short-title-slug>",
				"4. Begin work",
			}
			last := -1
			for _, step := range steps {
				idx := strings.Index(text, step)
				if idx < 0 {
					t.Fatalf("Expected step %q in:\n%s", step, text)
				}
				if idx < last {
					t.Errorf("Expected step %q after the previous one", step)
				}
				last = idx
			}
		})
	}
}

func TestStartTaskPrompt_RejectsBranchType(t *testing.T) {
	dispatcher := newTestDispatcher(&fakeRetriever{})

	_, err := dispatcher.GetPrompt(context.Background(), PromptStartTask,
		stringArguments(map[string]string{"taskDescription": "x", "branchType": "hotfix"}))

	var invalid *domain.InvalidArgumentsError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidArgumentsError, got %v", err)
	}
	if !reflect.DeepEqual(invalid.Fields, []string{"branchType"}) {
		t.Errorf("Expected branchType to be reported, got %v", invalid.Fields)
	}
}

func TestStartTaskPrompt_HandlerChecksBranchType(t *testing.T) {
	_, err := StartTaskPrompt{}.GetPrompt(context.Background(), domain.Arguments{
		"taskDescription": "x",
		"branchType":      "chore",
	})

	var invalid *domain.InvalidArgumentsError
	if !errors.As(err, &invalid) || invalid.Capability != PromptStartTask {
		t.Errorf("Expected the handler to reject the branch type, got %v", err)
	}
}

func TestStatusResource(t *testing.T) {
	fixed := time.Date(2024, 3, 9, 14, 5, 0, 0, time.FixedZone("CET", 3600))
	resource := NewStatusResource(func() time.Time { return fixed })

	registry := NewCapabilityRegistry()
	registry.MustRegister(resource.Descriptor())
	dispatcher := NewDispatcher(registry, discardLogger())

	result, err := dispatcher.ReadResource(context.Background(), "status://check")
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}

	got := result.Contents[0]
	if got.Text != "Server is running. Current time: 2024-03-09T13:05:00Z" {
		t.Errorf("Unexpected status text: %q", got.Text)
	}
	if got.URI != "status://check" || got.MimeType != "text/plain" {
		t.Errorf("Unexpected contents metadata: %+v", got)
	}
}

func TestRegisterCapabilities(t *testing.T) {
	registry := NewCapabilityRegistry()
	deps := CapabilityDeps{Retriever: &fakeRetriever{}, Logger: discardLogger()}

	if err := RegisterCapabilities(registry, deps); err != nil {
		t.Fatalf("RegisterCapabilities failed: %v", err)
	}
	if registry.Len() != 4 {
		t.Errorf("Expected 4 capabilities, got %d", registry.Len())
	}

	for _, c := range []struct {
		kind domain.CapabilityKind
		name string
	}{
		{domain.KindTool, "get-linear-tickets"},
		{domain.KindResource, "status://check"},
		{domain.KindPrompt, "generateCommitMessage"},
		{domain.KindPrompt, "start-task"},
	} {
		if _, err := registry.Resolve(c.kind, c.name); err != nil {
			t.Errorf("Expected %s %s to be registered: %v", c.kind, c.name, err)
		}
	}

	err := RegisterCapabilities(registry, deps)
	var dup *domain.DuplicateCapabilityError
	if !errors.As(err, &dup) {
		t.Errorf("Expected a second registration to fail with DuplicateCapabilityError, got %v", err)
	}

	if err := RegisterCapabilities(NewCapabilityRegistry(), CapabilityDeps{}); err == nil {
		t.Error("Expected an error without a retriever")
	}
}

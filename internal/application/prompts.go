package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"linear-mcp-server/internal/domain"
)

// Prompt names
const (
	PromptGenerateCommitMessage = "generateCommitMessage"
	PromptStartTask             = "start-task"
)

// Branch kinds accepted by the start-task prompt.
const (
	BranchFeature = "feature"
	BranchBugfix  = "bugfix"
)

// CommitMessagePrompt asks the agent for a commit message describing a task.
type CommitMessagePrompt struct{}

// Descriptor declares the prompt for the registry.
func (p CommitMessagePrompt) Descriptor() domain.CapabilityDescriptor {
	return domain.CapabilityDescriptor{
		Name:        PromptGenerateCommitMessage,
		Kind:        domain.KindPrompt,
		Description: "Generate a commit message for a task",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"taskDescription": {
					Type:        "string",
					Description: "What the change does",
				},
			},
			Required: []string{"taskDescription"},
		},
		Prompt: p,
	}
}

// GetPrompt implements domain.PromptHandler.
func (p CommitMessagePrompt) GetPrompt(_ context.Context, args domain.Arguments) (*domain.GetPromptResult, error) {
	task, err := requireString(args, "taskDescription")
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf(`Generate a commit message for the following task:

%s

Use the Conventional Commits format "type(scope): summary". Keep the summary under 72 characters and in the imperative mood, then add a short body explaining what changed and why.`, task)

	return &domain.GetPromptResult{
		Description: "Commit message for a task",
		Messages:    []domain.PromptMessage{domain.UserTextMessage(text)},
	}, nil
}

// StartTaskPrompt walks the agent through picking a Linear ticket and opening a branch for it.
type StartTaskPrompt struct{}

// Descriptor declares the prompt for the registry.
func (p StartTaskPrompt) Descriptor() domain.CapabilityDescriptor {
	return domain.CapabilityDescriptor{
		Name:        PromptStartTask,
		Kind:        domain.KindPrompt,
		Description: "Find the Linear ticket for a task, create a branch and start working",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"taskDescription": {
					Type:        "string",
					Description: "Free-text description of the task",
				},
				"branchType": {
					Type:        "string",
					Description: "Kind of branch to create: feature or bugfix",
					Enum:        []any{BranchFeature, BranchBugfix},
				},
			},
			Required: []string{"taskDescription", "branchType"},
		},
		Prompt: p,
	}
}

// GetPrompt implements domain.PromptHandler.
func (p StartTaskPrompt) GetPrompt(_ context.Context, args domain.Arguments) (*domain.GetPromptResult, error) {
	task, err := requireString(args, "taskDescription")
	if err != nil {
		return nil, err
	}

	branchType, err := requireString(args, "branchType")
	if err != nil {
		return nil, err
	}

	if branchType != BranchFeature && branchType != BranchBugfix {
		return nil, &domain.InvalidArgumentsError{
			Capability: PromptStartTask,
			Fields:     []string{"branchType"},
			Reason:     fmt.Sprintf("must be %q or %q", BranchFeature, BranchBugfix),
		}
	}

	steps := []string{
		fmt.Sprintf("Call the %s tool with the description \"%s\" to fetch matching Linear tickets.", ToolGetLinearTickets, task),
		"Show the tickets to the user and let them choose the one to work on.",
		fmt.Sprintf("Create a git branch named %s/<ticket-id>-<short-title-slug> for the chosen ticket.", branchType),
		"Begin work on the chosen ticket.",
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I want to start working on a %s: %s\n\nFollow these steps in order:\n", branchType, task)
	for i, step := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	return &domain.GetPromptResult{
		Description: "Start a task from a Linear ticket",
		Messages:    []domain.PromptMessage{domain.UserTextMessage(b.String())},
	}, nil
}

package linear

import (
	"context"
	"fmt"
)

// StringComparator filters a string field.
type StringComparator struct {
	Eq                 string `json:"eq,omitempty"`
	Contains           string `json:"contains,omitempty"`
	ContainsIgnoreCase string `json:"containsIgnoreCase,omitempty"`
}

// IssueFilter is the subset of Linear's IssueFilter input this client uses.
type IssueFilter struct {
	Title       *StringComparator `json:"title,omitempty"`
	Description *StringComparator `json:"description,omitempty"`
	Or          []IssueFilter     `json:"or,omitempty"`
	And         []IssueFilter     `json:"and,omitempty"`
}

// IssuesOptions are the arguments of the issues query.
type IssuesOptions struct {
	Filter *IssueFilter
	First  int
}

// Issue is an issue as returned by a list query. Relations are not populated;
// call State, Assignee or Project to fetch them.
type Issue struct {
	ID          string  `json:"id"`
	Identifier  string  `json:"identifier"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`

	client *Client
}

// WorkflowState is the workflow state of an issue, e.g. "In Progress".
type WorkflowState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// User is a Linear user.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Project is a Linear project.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueConnection is a page of issues.
type IssueConnection struct {
	Nodes []*Issue `json:"nodes"`
}

const issuesQuery = `query Issues($filter: IssueFilter, $first: Int) {
  issues(filter: $filter, first: $first) {
    nodes {
      id
      identifier
      title
      description
      url
    }
  }
}`

// Issues lists issues matching opts in the order Linear returns them.
func (c *Client) Issues(ctx context.Context, opts IssuesOptions) (*IssueConnection, error) {
	variables := map[string]any{}
	if opts.Filter != nil {
		variables["filter"] = opts.Filter
	}
	if opts.First > 0 {
		variables["first"] = opts.First
	}

	var data struct {
		Issues *IssueConnection `json:"issues"`
	}
	if err := c.do(ctx, "Issues", issuesQuery, variables, &data); err != nil {
		return nil, err
	}

	if data.Issues == nil {
		return nil, &DecodeError{Err: fmt.Errorf("reply has no issues connection")}
	}
	if data.Issues.Nodes == nil {
		return nil, &DecodeError{Err: fmt.Errorf("reply has no issue nodes")}
	}

	for _, issue := range data.Issues.Nodes {
		if issue != nil {
			issue.client = c
		}
	}

	return data.Issues, nil
}

const issueStateQuery = `query IssueState($id: String!) {
  issue(id: $id) {
    state { id name type }
  }
}`

const issueAssigneeQuery = `query IssueAssignee($id: String!) {
  issue(id: $id) {
    assignee { id name displayName }
  }
}`

const issueProjectQuery = `query IssueProject($id: String!) {
  issue(id: $id) {
    project { id name }
  }
}`

// State fetches the issue's workflow state. A nil state with a nil error means none is set.
func (i *Issue) State(ctx context.Context) (*WorkflowState, error) {
	var data struct {
		Issue *struct {
			State *WorkflowState `json:"state"`
		} `json:"issue"`
	}
	if err := i.fetch(ctx, "IssueState", issueStateQuery, &data); err != nil {
		return nil, err
	}
	if data.Issue == nil {
		return nil, nil
	}
	return data.Issue.State, nil
}

// Assignee fetches the issue's assignee. A nil user with a nil error means unassigned.
func (i *Issue) Assignee(ctx context.Context) (*User, error) {
	var data struct {
		Issue *struct {
			Assignee *User `json:"assignee"`
		} `json:"issue"`
	}
	if err := i.fetch(ctx, "IssueAssignee", issueAssigneeQuery, &data); err != nil {
		return nil, err
	}
	if data.Issue == nil {
		return nil, nil
	}
	return data.Issue.Assignee, nil
}

// Project fetches the issue's project. A nil project with a nil error means none.
func (i *Issue) Project(ctx context.Context) (*Project, error) {
	var data struct {
		Issue *struct {
			Project *Project `json:"project"`
		} `json:"issue"`
	}
	if err := i.fetch(ctx, "IssueProject", issueProjectQuery, &data); err != nil {
		return nil, err
	}
	if data.Issue == nil {
		return nil, nil
	}
	return data.Issue.Project, nil
}

func (i *Issue) fetch(ctx context.Context, operation, query string, out any) error {
	if i.client == nil {
		return fmt.Errorf("linear: issue %s is not bound to a client", i.ID)
	}
	return i.client.do(ctx, operation, query, map[string]any{"id": i.ID}, out)
}

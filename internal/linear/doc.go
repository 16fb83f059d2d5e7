// Package linear is a small client for the Linear GraphQL API.
//
// It mirrors the object model of Linear's official SDKs: list queries return
// scalar fields only, and relations such as an issue's workflow state, assignee
// and project are fetched lazily, one request per relation, through methods on
// the returned objects.
package linear

// Package generation defines the boundary to the text-generation service.
//
// Backends translate a Request into their wire format and map failures onto
// the error kinds in errors.go. Requests are stateless: conversational
// history travels in Request.Turns on every call.
package generation

import "context"

// Role identifies the author of one conversational turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of conversational history.
type Turn struct {
	Role Role
	Text string
}

// Request is one generation call.
type Request struct {
	// System is the standing instruction for the model. Optional.
	System string
	// Turns is ordered history ending with the newest user turn.
	Turns []Turn
	// Schema constrains the response to JSON of this shape when set.
	Schema *Schema
}

// Response is the raw text produced by the service.
type Response struct {
	Text  string
	Model string
}

// Generator produces text for a Request.
type Generator interface {
	Generate(context.Context, Request) (Response, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(context.Context, Request) (Response, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// UserText returns a request made of a single user turn.
func UserText(system string, text string, schema *Schema) Request {
	return Request{
		System: system,
		Turns:  []Turn{{Role: RoleUser, Text: text}},
		Schema: schema,
	}
}

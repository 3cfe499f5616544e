// Package functions holds the tools the live model may call.
package functions

import (
	"fmt"

	"google.golang.org/genai"
)

// Handler answers one function call.
type Handler func(args map[string]any) (map[string]any, error)

// Registry maps tool names to declarations and handlers.
type Registry struct {
	decls    []*genai.FunctionDeclaration
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a tool.
func (r *Registry) Register(decl *genai.FunctionDeclaration, h Handler) {
	r.decls = append(r.decls, decl)
	r.handlers[decl.Name] = h
}

// Tools returns the declarations in the shape the live API expects.
func (r *Registry) Tools() []*genai.Tool {
	if r == nil || len(r.decls) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: r.decls}}
}

// Call runs the handler for fc. Failures become an "error" field in the
// response so the model can recover.
func (r *Registry) Call(fc *genai.FunctionCall) *genai.FunctionResponse {
	resp := &genai.FunctionResponse{ID: fc.ID, Name: fc.Name}

	h, ok := r.handlers[fc.Name]
	if !ok {
		resp.Response = map[string]any{"error": fmt.Sprintf("Unknown function: %s", fc.Name)}
		return resp
	}
	out, err := h(fc.Args)
	if err != nil {
		resp.Response = map[string]any{"error": err.Error()}
		return resp
	}
	resp.Response = out
	return resp
}

// Travel returns the registry of travel planner tools.
func Travel() *Registry {
	r := NewRegistry()
	r.Register(GetTravelPlannerFeaturesFunctionDeclaration(), func(map[string]any) (map[string]any, error) {
		return map[string]any{"output": GetTravelPlannerFeatures()}, nil
	})
	r.Register(GetPackingChecklistFunctionDeclaration(), func(args map[string]any) (map[string]any, error) {
		days, err := intArg(args, "days")
		if err != nil {
			return nil, err
		}
		destination, _ := args["destination"].(string)
		climate, _ := args["climate"].(string)
		return map[string]any{"items": GetPackingChecklist(destination, days, climate)}, nil
	})
	return r
}

// intArg reads a numeric argument; JSON numbers arrive as float64.
func intArg(args map[string]any, name string) (int, error) {
	switch v := args[name].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case nil:
		return 0, fmt.Errorf("missing argument %q", name)
	default:
		return 0, fmt.Errorf("argument %q must be a number, got %T", name, v)
	}
}

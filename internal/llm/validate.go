package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Normalized values of Response.StopReason.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
	StopRefused   = "refused"
)

// finishReply turns the text a provider produced into Response content.
//
// Tutor replies (no schema) are trimmed and carried as a JSON string, so
// Content is always valid JSON. A tutor reply cut off by the token limit is
// still delivered; only an empty one is rejected.
//
// Writing feedback (schema set) loses any markdown fence the model wrapped
// it in, must be complete and must satisfy the schema.
func finishReply(req Request, text, stop string) (json.RawMessage, error) {
	if req.Schema == nil {
		text = strings.TrimSpace(text)
		content, _ := json.Marshal(text)
		switch {
		case stop == StopRefused:
			return nil, &ErrInvalidResponse{Content: content, Err: ErrRefused}
		case text == "":
			return nil, &ErrInvalidResponse{Content: content, Err: ErrEmptyReply}
		}
		return content, nil
	}

	raw := json.RawMessage(stripFence(text))
	switch stop {
	case StopRefused:
		return nil, &ErrInvalidResponse{Content: raw, Err: ErrRefused}
	case StopMaxTokens:
		return nil, &ErrMaxTokensExceeded{Limit: req.MaxTokens, Content: raw}
	}
	if err := validateResponse(req.Schema, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

var fenced = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// stripFence removes a ```json ... ``` wrapper around a structured reply.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if m := fenced.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// compiled holds one *jsonschema.Schema per Schema.Name.
var compiled sync.Map

// validateResponse checks raw against schema. A nil schema accepts
// anything. Failures are returned as *ErrInvalidResponse.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("%s: not JSON: %w", schema.Name, err)}
	}

	sch, err := compileSchema(schema)
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}

	if err := sch.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("%s: %w", schema.Name, err)}
	}
	return nil
}

func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if v, ok := compiled.Load(schema.Name); ok {
		return v.(*jsonschema.Schema), nil
	}

	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("encode schema %q: %w", schema.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("decode schema %q: %w", schema.Name, err)
	}

	url := "fluentpath://schemas/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("load schema %q: %w", schema.Name, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}

	actual, _ := compiled.LoadOrStore(schema.Name, sch)
	return actual.(*jsonschema.Schema), nil
}

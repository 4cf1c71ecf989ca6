package llm

import (
	"context"
	"fmt"
	"strings"
)

// Purpose names the coaching feature a model call serves. It is recorded on
// every LLM request event and labels the request metrics.
type Purpose string

const (
	PurposeTutorChat       Purpose = "tutor-chat"
	PurposeWritingFeedback Purpose = "writing-feedback"

	// PurposeUnknown is reported for calls made without WithPurpose.
	PurposeUnknown Purpose = "unknown"
)

// Purposes lists the known purposes in display order.
var Purposes = []Purpose{PurposeTutorChat, PurposeWritingFeedback}

// ParsePurpose maps a label such as "tutor-chat" back to its Purpose.
func ParsePurpose(s string) (Purpose, error) {
	for _, p := range Purposes {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown purpose %q (want one of %s)", s, purposeList())
}

func purposeList() string {
	names := make([]string, len(Purposes))
	for i, p := range Purposes {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

type purposeKey struct{}

// WithPurpose tags ctx so the logging layer can attribute the call.
func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeKey{}, p)
}

// PurposeFrom returns the purpose set on ctx, or PurposeUnknown.
func PurposeFrom(ctx context.Context) Purpose {
	if p, ok := ctx.Value(purposeKey{}).(Purpose); ok && p != "" {
		return p
	}
	return PurposeUnknown
}

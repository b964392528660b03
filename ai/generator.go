// Package ai drafts git commit messages and code reviews from diff text
// through a pluggable text-generation boundary.
package ai

import "context"

// TextGenerator is the provider capability: given a system prompt and a
// user payload, it returns generated text. The caller never inspects
// provider-specific response formats.
type TextGenerator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

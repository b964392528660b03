package ai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PromptKind selects which drafting task the generator performs.
type PromptKind int

const (
	PromptCommit PromptKind = iota
	PromptReview
)

const commitSystemPrompt = `You are an expert software engineer writing git commit messages.
Given a diff, write a conventional commit message: a short imperative
subject line under 72 characters, then a blank line, then a concise body
explaining what changed and why. Output only the commit message.`

const reviewSystemPrompt = `You are an experienced code reviewer.
Given a diff, point out bugs, risky changes, and style issues, ordered by
severity. Be specific about file and line. Keep it brief; skip praise.`

// systemPrompt returns the built-in prompt for a kind, or the user's
// override from <configDir>/prompts/{commit,review}.txt when present.
func systemPrompt(kind PromptKind, configDir string) string {
	name := "commit.txt"
	builtin := commitSystemPrompt
	if kind == PromptReview {
		name = "review.txt"
		builtin = reviewSystemPrompt
	}

	if configDir != "" {
		if data, err := os.ReadFile(filepath.Join(configDir, "prompts", name)); err == nil {
			if s := strings.TrimSpace(string(data)); s != "" {
				return s
			}
		}
	}
	return builtin
}

// CommitMessage drafts a commit message for the given diff.
func CommitMessage(ctx context.Context, gen TextGenerator, diff, configDir string) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return "", fmt.Errorf("empty diff: nothing to describe")
	}
	msg, err := gen.Complete(ctx, systemPrompt(PromptCommit, configDir), diff)
	if err != nil {
		return "", fmt.Errorf("draft commit message: %w", err)
	}
	return strings.TrimSpace(msg), nil
}

// Review drafts a code review for the given diff.
func Review(ctx context.Context, gen TextGenerator, diff, configDir string) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return "", fmt.Errorf("empty diff: nothing to review")
	}
	review, err := gen.Complete(ctx, systemPrompt(PromptReview, configDir), diff)
	if err != nil {
		return "", fmt.Errorf("draft review: %w", err)
	}
	return strings.TrimSpace(review), nil
}

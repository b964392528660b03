package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shelf-sh/shelf/ai"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Draft a commit message for the staged diff",
	Long: `Reads a diff from stdin (when piped) or from "git diff --staged" in
the current directory, and drafts a conventional commit message.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		diff, err := readDiff(cmd.InOrStdin())
		if err != nil {
			return err
		}
		gen, err := ai.NewAnthropicGenerator(cfg.AIAPIKey, cfg.AIModel)
		if err != nil {
			return err
		}
		msg, err := ai.CommitMessage(rootCtx, gen, diff, configDir())
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Draft a code review for the staged diff",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		diff, err := readDiff(cmd.InOrStdin())
		if err != nil {
			return err
		}
		gen, err := ai.NewAnthropicGenerator(cfg.AIAPIKey, cfg.AIModel)
		if err != nil {
			return err
		}
		review, err := ai.Review(rootCtx, gen, diff, configDir())
		if err != nil {
			return err
		}
		fmt.Println(review)
		return nil
	},
}

// readDiff takes piped stdin when present, falling back to the staged
// diff of the current repository.
func readDiff(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice == 0 {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return "", fmt.Errorf("read stdin: %w", err)
			}
			if strings.TrimSpace(string(data)) != "" {
				return string(data), nil
			}
		}
	}

	var out, stderr bytes.Buffer
	gitCmd := exec.CommandContext(rootCtx, "git", "diff", "--staged")
	gitCmd.Stdout = &out
	gitCmd.Stderr = &stderr
	if err := gitCmd.Run(); err != nil {
		return "", fmt.Errorf("git diff --staged: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", fmt.Errorf("no staged changes and nothing piped to stdin")
	}
	return out.String(), nil
}

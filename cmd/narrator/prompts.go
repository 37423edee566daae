package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/session-narrator/internal/summarizer"
)

var promptsWriteDir string

// NewPromptsCommand creates the prompts command.
func NewPromptsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts [chunk|final]",
		Short: "Print or export the built-in prompt templates",
		Long: `Print the built-in French prompt templates. {TEXT} is replaced by the chunk
text (chunk prompt) or by the chunk summaries (final prompt).

With --write the templates are saved as chunk.txt and final.txt, ready to edit
and pass back with --chunk-prompt / --final-prompt or prompts.chunk_file /
prompts.final_file in the config. Writing again resets them to the defaults.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"chunk", "final"},
		RunE:      runPrompts,
	}

	cmd.Flags().StringVar(&promptsWriteDir, "write", "", "Write chunk.txt and final.txt to this directory")

	return cmd
}

func runPrompts(cmd *cobra.Command, args []string) error {
	templates := []struct {
		name string
		text string
	}{
		{"chunk", summarizer.DefaultChunkPrompt()},
		{"final", summarizer.DefaultFinalPrompt()},
	}

	if promptsWriteDir != "" {
		if err := os.MkdirAll(promptsWriteDir, 0755); err != nil {
			return fmt.Errorf("create prompts dir: %w", err)
		}
		for _, t := range templates {
			path := filepath.Join(promptsWriteDir, t.name+".txt")
			if err := os.WriteFile(path, []byte(t.text), 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Println(path)
		}
		return nil
	}

	p := newProgressPrinter(os.Stdout)
	for _, t := range templates {
		if len(args) == 1 && args[0] != t.name {
			continue
		}
		if len(args) == 0 {
			fmt.Println(p.render(titleStyle, "# "+t.name))
		}
		fmt.Println(t.text)
		if len(args) == 0 {
			fmt.Println()
		}
	}
	return nil
}

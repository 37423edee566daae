package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/session-narrator/internal/chunker"
	"github.com/nguyentantai21042004/session-narrator/internal/summarizer"
)

var (
	planMaxTokens    int
	planShowDocument bool
	planJSON         bool
)

type planChunk struct {
	Index     int  `json:"index"`
	Tokens    int  `json:"tokens"`
	Sentences int  `json:"sentences"`
	Overlap   bool `json:"overlap"`
}

type planOutput struct {
	Participants []string    `json:"participants"`
	Entries      int         `json:"entries"`
	Tokens       int         `json:"tokens"`
	Budget       int         `json:"budget"`
	Calls        int         `json:"gateway_calls"`
	Chunks       []planChunk `json:"chunks"`
	Document     string      `json:"document,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <transcript>...",
		Short: "Show how transcripts would be merged and chunked",
		Long: `Merge and chunk the transcripts exactly like summarize does, without calling
the gateway. Useful to tune --max-tokens before a long run.`,
		RunE: runPlan,
	}

	cmd.Flags().IntVar(&planMaxTokens, "max-tokens", 0, "Chunk budget in estimated tokens (default from config)")
	cmd.Flags().BoolVar(&planShowDocument, "show-document", false, "Print the merged document")
	cmd.Flags().BoolVar(&planJSON, "json", false, "Output as JSON")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	if planMaxTokens != 0 {
		cfg.Chunking.MaxTokens = planMaxTokens
	}

	s := summarizer.New(summarizer.Options{Logger: log, MaxTokens: cfg.Chunking.MaxTokens})
	plan, err := s.Plan(cmd.Context(), args)
	if err != nil {
		return err
	}

	out := planOutput{
		Participants: plan.Participants,
		Entries:      plan.Entries,
		Tokens:       chunker.CountTokens(plan.Document),
		Budget:       cfg.Chunking.MaxTokens,
		Calls:        len(plan.Chunks),
	}
	if len(plan.Chunks) > 1 {
		out.Calls++
	}
	for _, c := range plan.Chunks {
		out.Chunks = append(out.Chunks, planChunk{
			Index:     c.Index,
			Tokens:    chunker.CountTokens(c.Text),
			Sentences: len(c.Sentences),
			Overlap:   c.Overlap() != "",
		})
	}
	if planShowDocument {
		out.Document = plan.Document
	}

	if planJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return outputPlanHuman(out)
}

func outputPlanHuman(out planOutput) error {
	p := newProgressPrinter(os.Stdout)

	fmt.Println(p.render(titleStyle, "Session plan"))
	fmt.Printf("  Participants: %v\n", out.Participants)
	fmt.Printf("  Entries:      %d\n", out.Entries)
	fmt.Printf("  Tokens:       ~%d (budget %d per chunk)\n", out.Tokens, out.Budget)
	fmt.Printf("  Gateway calls: %d\n\n", out.Calls)

	for _, c := range out.Chunks {
		overlap := ""
		if c.Overlap {
			overlap = p.render(mutedStyle, " +overlap")
		}
		fmt.Printf("  chunk %-3d %5d tokens %4d sentences%s\n", c.Index+1, c.Tokens, c.Sentences, overlap)
	}

	if out.Document != "" {
		fmt.Println()
		fmt.Print(out.Document)
	}
	return nil
}

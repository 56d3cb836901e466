package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/spf13/cobra"
)

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the index with its k-NN mapping if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.rt.Store.EnsureIndex(cmd.Context(), a.index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "index %s ready\n", a.index)
			return nil
		},
	}
}

func (a *app) putMappingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put-mapping",
		Short: "Apply the k-NN field mapping to an existing index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.rt.Store.PutMapping(cmd.Context(), a.index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mapping applied to index %s\n", a.index)
			return nil
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the index and every sample in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("%w: pass --yes to delete index %s", entity.ErrInvalidParameter, a.index)
			}
			if err := a.rt.Store.DeleteIndex(cmd.Context(), a.index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "index %s deleted\n", a.index)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")

	return cmd
}

func (a *app) addSampleCommand() *cobra.Command {
	var profile, text, answer string

	cmd := &cobra.Command{
		Use:   "add-sample",
		Short: "Embed a question and store it with its answer",
		Example: `  index-admin add-sample --profile profile1 \
    --text "Who is Zhang Kun?" --answer "Zhang Kun is a fund manager at E Fund."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := a.rt.Store.AddSample(cmd.Context(), entity.Sample{
				Index:   a.index,
				Profile: a.profileOr(profile),
				Text:    text,
				Answer:  answer,
			})
			if err != nil {
				return err
			}
			if a.output == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"id": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sample %s added\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "Sample profile (default from config)")
	cmd.Flags().StringVar(&text, "text", "", "Question text")
	cmd.Flags().StringVar(&answer, "answer", "", "Curated answer")
	_ = cmd.MarkFlagRequired("text")
	_ = cmd.MarkFlagRequired("answer")

	return cmd
}

func (a *app) listSamplesCommand() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "list-samples",
		Short: "List the samples of one profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			samples, err := a.rt.Store.ListSamples(cmd.Context(), a.index, a.profileOr(profile))
			if err != nil {
				return err
			}
			return a.writeMatches(cmd.OutOrStdout(), samples, false)
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "Sample profile (default from config)")

	return cmd
}

func (a *app) deleteSampleCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "delete-sample",
		Short: "Delete one sample by document ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.rt.Store.DeleteSample(cmd.Context(), a.index, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sample %s deleted\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Document ID")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func (a *app) searchCommand() *cobra.Command {
	var profile string
	var topK int

	cmd := &cobra.Command{
		Use:   "search TEXT",
		Short: "Find the samples closest to TEXT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if topK < 1 {
				topK = a.rt.TopK
			}
			matches, err := a.rt.Store.SearchText(cmd.Context(), a.profileOr(profile), topK, a.index, args[0])
			if err != nil {
				return err
			}
			return a.writeMatches(cmd.OutOrStdout(), matches, true)
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "Sample profile (default from config)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of matches (default from config)")

	return cmd
}

func (a *app) askCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask TEXT",
		Short: "Run the question answering pipeline once and print every step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trace, err := a.rt.Chat.AnswerDetailed(cmd.Context(), args[0])
			if a.output == "json" && trace != nil {
				if werr := writeJSON(cmd.OutOrStdout(), trace); werr != nil {
					return werr
				}
				return err
			}
			if trace != nil {
				writeTrace(cmd.OutOrStdout(), trace)
			}
			return err
		},
	}
}

func (a *app) profileOr(profile string) string {
	if profile != "" {
		return profile
	}
	return a.rt.Profile
}

func (a *app) writeMatches(out io.Writer, matches []entity.SearchMatch, withScore bool) error {
	if a.output == "json" {
		if matches == nil {
			matches = []entity.SearchMatch{}
		}
		return writeJSON(out, matches)
	}

	if len(matches) == 0 {
		fmt.Fprintln(out, "no samples found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if withScore {
		fmt.Fprintln(w, "ID\tSCORE\tTEXT\tANSWER")
	} else {
		fmt.Fprintln(w, "ID\tTEXT\tANSWER")
	}
	for _, m := range matches {
		if withScore {
			fmt.Fprintf(w, "%s\t%.4f\t%s\t%s\n", m.ID, m.Score, oneLine(m.Source.Text), oneLine(m.Source.Answer))
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, oneLine(m.Source.Text), oneLine(m.Source.Answer))
		}
	}
	return w.Flush()
}

func writeTrace(out io.Writer, trace *entity.ChatTrace) {
	sections := []struct{ title, body string }{
		{"Question", trace.Question},
		{"Generated query", trace.GeneratedQuery},
		{"Graph result", trace.GraphResult},
		{"Evidence", trace.Evidence},
		{"Answer", trace.Answer},
	}
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		fmt.Fprintf(out, "== %s ==\n%s\n\n", s.title, s.body)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 80 {
		return string(r[:77]) + "..."
	}
	return s
}

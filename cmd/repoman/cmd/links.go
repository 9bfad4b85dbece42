package cmd

import (
	"context"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/repoman-dev/repoman/internal/config"
	"github.com/repoman-dev/repoman/internal/output"
	"github.com/repoman-dev/repoman/internal/store"
)

func newLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "Summarize hyperlinks collected from indexed documents by domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runLinks(cmd.Context(), cfg, stdoutWriter())
		},
	}
}

func runLinks(ctx context.Context, cfg *config.Config, out *output.Writer) error {
	s, err := store.Open(storeOptions(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.CheckSchema(ctx); err != nil {
		return err
	}

	links, err := s.AllLinks(ctx)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		out.Println("no links")
		return nil
	}

	counts := make(map[string]int)
	for _, l := range links {
		counts[linkDomain(l.URL)]++
	}

	type domainCount struct {
		domain string
		count  int
	}
	summary := make([]domainCount, 0, len(counts))
	for d, n := range counts {
		summary = append(summary, domainCount{domain: d, count: n})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].count != summary[j].count {
			return summary[i].count > summary[j].count
		}
		return summary[i].domain < summary[j].domain
	})

	out.Printf("%d links across %d domains\n", len(links), len(summary))
	for _, dc := range summary {
		out.Printf("%5d  %s\n", dc.count, dc.domain)
	}
	return nil
}

// linkDomain groups a link under its host. Links without a parseable host
// (mailto, bare paths) group under the raw value.
func linkDomain(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return raw
}

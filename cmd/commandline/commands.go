package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ethanbaker/sourcing/pkg/sdk"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
)

// cli runs console commands against the sourcing API
type cli struct {
	client *sdk.Client
	out    io.Writer
}

const usage = `Commands:
  platforms                          list known platforms
  list                               list integrations
  create <platform> <name...>        register an integration
  delete <id>                        delete an integration
  search <platform> [keywords...]    run an on-demand search
  sync <id>                          sync an integration now
  status <id>                        show sync status
  logs <id> [limit]                  show the audit log
  candidates [platform]              list stored candidates
  import <candidate id> [notes...]   promote a candidate
  export <file> [platform]           write candidates to an XLSX file
  stats                              show the overview
  exit                               quit`

// run executes one command line
func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}

	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "help":
		fmt.Fprintln(c.out, usage)
		return nil

	case "platforms":
		platforms, err := c.client.SupportedPlatforms(ctx)
		if err != nil {
			return err
		}
		w := c.table()
		fmt.Fprintln(w, "PLATFORM\tNAME\tADAPTER")
		for _, p := range platforms {
			fmt.Fprintf(w, "%s\t%s\t%t\n", p.Value, p.Name, p.Supported)
		}
		return w.Flush()

	case "list":
		integrations, err := c.client.ListIntegrations(ctx)
		if err != nil {
			return err
		}
		w := c.table()
		fmt.Fprintln(w, "ID\tPLATFORM\tNAME\tSTATUS\tACTIVE\tFOUND\tIMPORTED\tERRORS")
		for _, i := range integrations {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%d\t%d\t%d\n", i.ID, i.Platform, i.Name, i.Status, i.IsActive, i.TotalCandidatesFound, i.TotalCandidatesImported, i.ErrorCount)
		}
		return w.Flush()

	case "create":
		if len(rest) < 2 {
			return fmt.Errorf("usage: create <platform> <name...>")
		}
		integration, err := c.client.CreateIntegration(ctx, &sdk.CreateIntegrationRequest{
			Platform:          sourcing.Platform(rest[0]),
			IntegrationConfig: sourcing.IntegrationConfig{Name: strings.Join(rest[1:], " ")},
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Created integration %d for %s\n", integration.ID, integration.Platform)
		return nil

	case "delete":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		if err := c.client.DeleteIntegration(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Deleted integration %d\n", id)
		return nil

	case "search":
		if len(rest) < 1 {
			return fmt.Errorf("usage: search <platform> [keywords...]")
		}
		res, err := c.client.Search(ctx, &sdk.SearchRequest{
			Platform: sourcing.Platform(rest[0]),
			Criteria: sourcing.SearchCriteria{Keywords: rest[1:]},
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Found %d candidates on %s\n", res.Count, res.Platform)
		return c.printCandidates(res.Candidates)

	case "sync":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		res, err := c.client.Sync(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Sync %s finished: %s, %d candidates\n", res.RunID, res.Status, res.CandidatesFound)
		return nil

	case "status":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		status, err := c.client.SyncStatus(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s: %s, %d stored, %d imported, %d errors\n", status.Platform, status.Status, status.CandidatesFound, status.CandidatesImported, status.ErrorCount)
		if status.ErrorMessage != "" {
			fmt.Fprintf(c.out, "Last error: %s\n", status.ErrorMessage)
		}
		return nil

	case "logs":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		limit := 0
		if len(rest) > 1 {
			if limit, err = strconv.Atoi(rest[1]); err != nil {
				return fmt.Errorf("invalid limit '%s'", rest[1])
			}
		}
		logs, err := c.client.Logs(ctx, id, limit)
		if err != nil {
			return err
		}
		w := c.table()
		for _, entry := range logs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.Operation, entry.Status, entry.Message)
		}
		return w.Flush()

	case "candidates":
		query := sdk.CandidateQuery{}
		if len(rest) > 0 {
			query.Platform = sourcing.Platform(rest[0])
		}
		candidates, err := c.client.ListCandidates(ctx, query)
		if err != nil {
			return err
		}
		return c.printCandidates(candidates)

	case "import":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		res, err := c.client.ImportCandidate(ctx, id, &sdk.ImportRequest{Notes: strings.Join(rest[1:], " ")})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Imported candidate %d as user %d\n", res.Candidate.ID, res.UserID)
		return nil

	case "export":
		if len(rest) < 1 {
			return fmt.Errorf("usage: export <file> [platform]")
		}
		query := sdk.CandidateQuery{}
		if len(rest) > 1 {
			query.Platform = sourcing.Platform(rest[1])
		}
		data, err := c.client.ExportCandidates(ctx, query)
		if err != nil {
			return err
		}
		if err := os.WriteFile(rest[0], data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", rest[0], err)
		}
		fmt.Fprintf(c.out, "Wrote %d bytes to %s\n", len(data), rest[0])
		return nil

	case "stats":
		stats, err := c.client.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%d integrations (%d active), %d candidates, %d imported\n", stats.TotalIntegrations, stats.ActiveIntegrations, stats.TotalCandidatesFound, stats.TotalCandidatesImported)
		return nil

	default:
		return fmt.Errorf("unknown command '%s', type 'help'", cmd)
	}
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func (c *cli) printCandidates(candidates []*sourcing.ExternalCandidate) error {
	w := c.table()
	fmt.Fprintln(w, "ID\tNAME\tPOSITION\tLOCATION\tIMPORTED")
	for _, candidate := range candidates {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", candidate.ID, candidate.FullName(), candidate.CurrentPosition, candidate.Location, candidate.IsImported)
	}
	return w.Flush()
}

func parseID(args []string) (uint, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("an id is required")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id '%s'", args[0])
	}
	return uint(id), nil
}

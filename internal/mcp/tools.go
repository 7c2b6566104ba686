package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/insight"
	"go.uber.org/zap"
)

// Dismisser records dismissals.
type Dismisser interface {
	Dismiss(ctx context.Context, domain, insightID string) error
	Undismiss(ctx context.Context, domain, insightID string) error
}

// Invalidator drops the cached results of a domain.
type Invalidator interface {
	Invalidate(ctx context.Context, domain string) error
}

// DomainsResult lists the evaluable domains.
type DomainsResult struct {
	Domains []string `json:"domains"`
}

// InsightsResult is the output of the insight tools.
type InsightsResult struct {
	Domain   string            `json:"domain"`
	Insights []insight.Insight `json:"insights"`
}

// DismissResult confirms a dismissal change.
type DismissResult struct {
	Domain string `json:"domain"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

var (
	noArgsSchema   = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)
	generateSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"domain":{"type":"string","description":"clients, materials, general-costs, finance, real-estate or admin"},` +
		`"dataset":{"type":"object","description":"Records to evaluate: entries, clients, kpis, window, now, thresholds, limit"}},` +
		`"required":["domain"],"additionalProperties":false}`)
	storedSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"domain":{"type":"string"},` +
		`"from":{"type":"string","description":"Start date YYYY-MM-DD"},` +
		`"to":{"type":"string","description":"Last day YYYY-MM-DD"},` +
		`"limit":{"type":"integer","description":"Maximum number of insights"}},` +
		`"required":["domain"],"additionalProperties":false}`)
	dismissSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"domain":{"type":"string"},"id":{"type":"string"},` +
		`"undo":{"type":"boolean","description":"Restore instead of dismiss"}},` +
		`"required":["domain","id"],"additionalProperties":false}`)
)

func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "list_domains",
		Description: "Business domains that can be evaluated.",
		InputSchema: noArgsSchema,
		Handler:     s.handleListDomains,
	})
	s.registerTool(toolDef{
		Name:        "generate_insights",
		Description: "Evaluate the given records of one domain and return ranked insights.",
		InputSchema: generateSchema,
		Handler:     s.handleGenerate,
	})
	if !s.runner.HasSource() {
		return
	}
	s.registerTool(toolDef{
		Name:        "get_stored_insights",
		Description: "Evaluate the stored records of one domain, without dismissed insights.",
		InputSchema: storedSchema,
		Handler:     s.handleStored,
	})
	if s.store != nil {
		s.registerTool(toolDef{
			Name:        "dismiss_insight",
			Description: "Hide an insight ID from stored results, or restore it with undo.",
			InputSchema: dismissSchema,
			Handler:     s.handleDismiss,
		})
	}
}

func (s *Server) handleListDomains(_ context.Context, _ json.RawMessage) (any, error) {
	out := DomainsResult{Domains: make([]string, len(adapter.Domains))}
	for i, d := range adapter.Domains {
		out.Domains[i] = string(d)
	}
	return out, nil
}

func (s *Server) handleGenerate(_ context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Domain  string          `json:"domain"`
		Dataset adapter.Dataset `json:"dataset"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	domain, err := adapter.ParseDomain(args.Domain)
	if err != nil {
		return nil, err
	}
	args.Dataset.Domain = domain

	insights, err := s.runner.Generate(args.Dataset)
	if err != nil {
		return nil, err
	}
	return InsightsResult{Domain: string(domain), Insights: insights}, nil
}

func (s *Server) handleStored(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Domain string `json:"domain"`
		From   string `json:"from"`
		To     string `json:"to"`
		Limit  int    `json:"limit"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	domain, err := adapter.ParseDomain(args.Domain)
	if err != nil {
		return nil, err
	}

	var w adapter.Window
	if args.From != "" {
		if w.Start, err = time.Parse("2006-01-02", args.From); err != nil {
			return nil, fmt.Errorf("invalid from date %q", args.From)
		}
	}
	if args.To != "" {
		end, err := time.Parse("2006-01-02", args.To)
		if err != nil {
			return nil, fmt.Errorf("invalid to date %q", args.To)
		}
		w.End = end.AddDate(0, 0, 1)
	}

	insights, err := s.runner.FromSource(ctx, domain, w, args.Limit)
	if err != nil {
		return nil, err
	}
	return InsightsResult{Domain: string(domain), Insights: insights}, nil
}

func (s *Server) handleDismiss(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Domain string `json:"domain"`
		ID     string `json:"id"`
		Undo   bool   `json:"undo"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	domain, err := adapter.ParseDomain(args.Domain)
	if err != nil {
		return nil, err
	}
	if args.ID == "" {
		return nil, errors.New("id is required")
	}

	status := "dismissed"
	if args.Undo {
		status = "restored"
		err = s.store.Undismiss(ctx, string(domain), args.ID)
	} else {
		err = s.store.Dismiss(ctx, string(domain), args.ID)
	}
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, string(domain)); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("domain", string(domain)), zap.Error(err))
		}
	}
	return DismissResult{Domain: string(domain), ID: args.ID, Status: status}, nil
}

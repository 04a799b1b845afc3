package agent

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/hummhq/humm/pkg/browser"
	"github.com/hummhq/humm/pkg/llm"
	"github.com/hummhq/humm/pkg/types"
)

// urlPattern pulls the first URL out of a free-text gateway answer.
var urlPattern = regexp.MustCompile(`https?://[^\s"'<>\)]+`)

// financeKeywords route finance-flavored queries to a finance portal when
// the gateway can't suggest a site.
var financeKeywords = []string{"stock", "market", "finance", "financial", "price", "trading", "invest", "crypto", "currency"}

const (
	financePortalURL = "https://finance.yahoo.com"
	searchEngineURL  = "https://duckduckgo.com/?q="
)

// researchContentTokenBudget bounds how much extracted page text is handed
// to the gateway for analysis.
const researchContentTokenBudget = 6000

// runResearch resolves a target URL (asking the gateway when the task has
// none), navigates, extracts the whole page, and asks the gateway to analyze
// the content against the user's query. The partial observation list is
// returned to the caller even when a step fails.
func (a *Agent) runResearch(ctx context.Context, task types.Task, rec *recorder) (map[string]any, error) {
	target := task.TargetURL
	if target == "" {
		target = a.resolveResearchURL(ctx, task.UserQuery)
		a.log.Infof("research target resolved to %s", target)
	}

	nav := a.exec(ctx, browser.Navigate(target), rec)
	if !nav.Success {
		return nil, fmt.Errorf("navigation failed: %s", nav.Error)
	}

	ext := a.exec(ctx, browser.Extract(""), rec)
	if !ext.Success {
		return nil, fmt.Errorf("extraction failed: %s", ext.Error)
	}

	analysis := a.text.Generate(ctx, llm.Request{
		Prompt: fmt.Sprintf("Analyze the following page content and answer the question: %s\nGive a concise, factual answer grounded only in the content.", task.UserQuery),
		Context: map[string]any{
			"url":     ext.URL,
			"title":   ext.PageTitle,
			"content": trimToTokens(ext.Content, researchContentTokenBudget),
		},
	})

	return map[string]any{
		"url":               ext.URL,
		"page_title":        ext.PageTitle,
		"extracted_content": ext.Content,
		"ai_analysis":       analysis.Text,
		"confidence":        analysis.Confidence,
		"provider":          analysis.Provider,
	}, nil
}

// resolveResearchURL asks the gateway which site best answers the query and
// extracts a URL from the free-text answer, falling back to a small
// domain table when none is found.
func (a *Agent) resolveResearchURL(ctx context.Context, query string) string {
	resp := a.text.Generate(ctx, llm.Request{
		Prompt: fmt.Sprintf("Which single public website best answers this query: %q? Reply with one full URL.", query),
	})

	if match := urlPattern.FindString(resp.Text); match != "" {
		return strings.TrimRight(match, ".,;")
	}
	return fallbackResearchURL(query)
}

// fallbackResearchURL maps a query onto a portal when the gateway offered no
// usable URL: finance-flavored queries go to a finance portal, everything
// else to a search engine.
func fallbackResearchURL(query string) string {
	lowered := strings.ToLower(query)
	for _, kw := range financeKeywords {
		if strings.Contains(lowered, kw) {
			return financePortalURL
		}
	}
	return searchEngineURL + url.QueryEscape(query)
}

package ruleengine

import (
	"bufio"
	"sort"
	"strconv"
	"strings"

	"github.com/orneryd/graphrules/pkg/graphstore"
)

// extractedRule is one fenced rule block plus its header metadata and
// position of first appearance, used to order execution.
type extractedRule struct {
	text        string
	name        string
	description string
	priority    int
	order       int
}

// extractRules scans markdown for fenced code blocks tagged ```graphrule```
// and pulls out the rule text, honoring an optional header of `key: value`
// lines at the top of the block (`name`, `description`, `priority`). Uses
// plain line-oriented scanning rather than a Markdown parsing library: the
// surface needed here — find a fence, read until the matching close — is
// narrower than any library's scope.
func extractRules(markdown string) []extractedRule {
	var rules []extractedRule
	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inFence := false
	var body []string
	order := 0

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !inFence {
			if strings.HasPrefix(trimmed, "```") && isGraphRuleInfoString(trimmed) {
				inFence = true
				body = nil
			}
			continue
		}

		if trimmed == "```" {
			inFence = false
			text, name, description, priority := splitHeader(body)
			if strings.TrimSpace(text) != "" {
				rules = append(rules, extractedRule{text: text, name: name, description: description, priority: priority, order: order})
				order++
			}
			continue
		}

		body = append(body, line)
	}

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority != rules[j].priority {
			return rules[i].priority > rules[j].priority
		}
		return rules[i].order < rules[j].order
	})

	return rules
}

func isGraphRuleInfoString(fenceLine string) bool {
	info := strings.TrimSpace(strings.TrimPrefix(fenceLine, "```"))
	return strings.EqualFold(info, "graphrule")
}

// splitHeader peels leading `key: value` lines off body, recognizing
// `name`, `description`, and `priority` — any other key is stripped too but
// otherwise ignored. The remaining lines are the rule text.
func splitHeader(body []string) (text, name, description string, priority int) {
	i := 0
	for i < len(body) {
		line := strings.TrimSpace(body[i])
		key, value, isHeader := splitHeaderLine(line)
		if !isHeader {
			break
		}
		switch {
		case strings.EqualFold(key, "priority"):
			if n, err := strconv.Atoi(value); err == nil {
				priority = n
			}
		case strings.EqualFold(key, "name"):
			name = value
		case strings.EqualFold(key, "description"):
			description = value
		}
		i++
	}
	return strings.Join(body[i:], "\n"), name, description, priority
}

func splitHeaderLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}
	for _, r := range key {
		if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return "", "", false
		}
	}
	return key, value, true
}

// ExecuteQueriesFromMarkdown extracts every ```graphrule``` block from
// markdown, orders them by descending priority header (ties broken by order
// of appearance), and executes each against graph in that order.
func (e *Engine) ExecuteQueriesFromMarkdown(graph *graphstore.Graph, markdown string) []RuleResult {
	rules := extractRules(markdown)
	results := make([]RuleResult, 0, len(rules))
	for _, r := range rules {
		result := e.ExecuteQuery(graph, r.text)
		result.Name = r.name
		result.Description = r.description
		result.Priority = r.priority
		results = append(results, result)
	}
	return results
}

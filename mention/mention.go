// Package mention extracts @-mention targets from chat messages against
// a snapshot of the registered agents.
package mention

import (
	"regexp"
	"strings"

	"github.com/hupe1980/swarmgate/core"
)

// Mention tokens are @ followed by a run of word characters or hyphens.
// Display names are matched with their whitespace stripped, so
// "@DataMiner" resolves the agent named "Data Miner".
var mentionRe = regexp.MustCompile(`@([\w-]+)`)

// Extract returns the ids of all agents mentioned in text, in order of
// first occurrence, deduplicated. A token matches an agent when it
// equals the agent id or the agent's whitespace-stripped display name,
// case-insensitively and exactly. Tokens that match no agent are
// ignored.
func Extract(text string, agents []core.Agent) []string {
	if text == "" || len(agents) == 0 {
		return nil
	}

	lookup := make(map[string]string, len(agents)*2)
	for _, a := range agents {
		lookup[strings.ToLower(a.ID)] = a.ID
		if name := strings.Join(strings.Fields(a.Name), ""); name != "" {
			lookup[strings.ToLower(name)] = a.ID
		}
	}

	var (
		ids  []string
		seen = make(map[string]bool)
	)

	for _, m := range mentionRe.FindAllStringSubmatch(text, -1) {
		id, ok := lookup[strings.ToLower(m[1])]
		if !ok || seen[id] {
			continue
		}

		seen[id] = true
		ids = append(ids, id)
	}

	return ids
}

package tools

import (
	"fmt"
	"log"
	"sort"
	"strings"

	agent "github.com/Protocol-Lattice/agent-server"
)

// Kind names a toolkit that can be attached to an agent.
type Kind string

const (
	KindYFinance Kind = "YFinanceTools"
)

type factory func(logger *log.Logger) []agent.Tool

var kinds = map[Kind]factory{
	KindYFinance: func(logger *log.Logger) []agent.Tool { return NewYFinance(logger).Tools() },
}

var aliases = map[string]Kind{
	"yfinancetools": KindYFinance,
	"yfinance":      KindYFinance,
}

// ParseKind maps a requested toolkit name onto a known Kind. Matching ignores case.
func ParseKind(name string) (Kind, error) {
	if k, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown tool kind %q", name)
}

// Kinds lists the known toolkits.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Build instantiates the tools of one kind.
func Build(kind Kind, logger *log.Logger) ([]agent.Tool, error) {
	f, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown tool kind %q", kind)
	}
	return f(logger), nil
}

// Resolve turns requested toolkit names into tools. Names that do not match a known kind
// are returned in unknown; a kind requested twice is built once.
func Resolve(names []string, logger *log.Logger) (resolved []agent.Tool, unknown []string) {
	seen := make(map[Kind]bool)
	for _, name := range names {
		kind, err := ParseKind(name)
		if err != nil {
			unknown = append(unknown, name)
			continue
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true
		built, err := Build(kind, logger)
		if err != nil {
			unknown = append(unknown, name)
			continue
		}
		resolved = append(resolved, built...)
	}
	return resolved, unknown
}

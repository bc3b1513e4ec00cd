package provider

import (
	"context"
	"fmt"
	"strings"
)

// RuleBasedLLM is the always-available terminal fallback: deterministic
// template expansion instead of a real model call. It never fails and
// never performs I/O, so Available always reports true.
type RuleBasedLLM struct{}

func NewRuleBasedLLM() *RuleBasedLLM { return &RuleBasedLLM{} }

func (r *RuleBasedLLM) Name() string { return "rulebased" }

func (r *RuleBasedLLM) Available(ctx context.Context) bool { return true }

func (r *RuleBasedLLM) Generate(ctx context.Context, systemPrompt, userPrompt string, params map[string]string) (string, error) {
	topic := strings.TrimSpace(userPrompt)
	if topic == "" {
		topic = "this topic"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Introduction\n")
	fmt.Fprintf(&b, "Today we're exploring %s. Let's break down what it is and why it matters.\n\n", topic)
	fmt.Fprintf(&b, "# Main Points\n")
	fmt.Fprintf(&b, "First, consider the fundamentals of %s. ", topic)
	fmt.Fprintf(&b, "Understanding these basics gives us a foundation to build on.\n")
	fmt.Fprintf(&b, "Next, let's look at a practical example that brings %s to life.\n\n", topic)
	fmt.Fprintf(&b, "# Conclusion\n")
	fmt.Fprintf(&b, "That's a quick look at %s. Thanks for watching.\n", topic)
	return b.String(), nil
}

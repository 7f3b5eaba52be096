package docs

import (
	"strings"
	"testing"
)

func TestTopics_EveryTopicResolves(t *testing.T) {
	topics := Topics()
	if len(topics) == 0 {
		t.Fatal("no topics embedded")
	}
	for _, topic := range topics {
		body, ok := Get(topic)
		if !ok || strings.TrimSpace(body) == "" {
			t.Fatalf("topic %q did not resolve", topic)
		}
	}
}

func TestGet(t *testing.T) {
	if _, ok := Get("WORKFLOW"); !ok {
		t.Fatal("lookup should ignore case")
	}
	for _, topic := range []string{"", "nope", "../docs", "content/workflow"} {
		if _, ok := Get(topic); ok {
			t.Fatalf("Get(%q) resolved", topic)
		}
	}
}

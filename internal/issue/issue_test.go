// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestValues_SortedAndComplete(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != len(issues) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(issues))
	}
	for i, iss := range values {
		if want := Id(i + 1); iss.Id() != want {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, iss.Id(), want)
		}
		if strings.TrimSpace(string(iss.MarkdownMsg())) == "" {
			t.Errorf("issue %d has an empty message", iss.Id())
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	if got := Get(ExternalNotFoundId); got == nil || got.Id() != ExternalNotFoundId {
		t.Errorf("Get(ExternalNotFoundId) = %v", got)
	}
	if got := Get(Id(999)); got != nil {
		t.Errorf("Get(999) = %v, want nil", got)
	}
}

func TestIssue_LinksAreCopies(t *testing.T) {
	t.Parallel()

	iss := Get(ContainerEngineUnavailableId)
	links := iss.ExtLinks()
	if len(links) == 0 {
		t.Fatal("expected external links")
	}
	links[0] = "mutated"
	if iss.ExtLinks()[0] == "mutated" {
		t.Error("ExtLinks() should return a copy")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	out, err := Get(UnknownEnvId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "Unknown environment") {
		t.Errorf("rendered output missing heading:\n%s", out)
	}
	if !strings.Contains(out, "envrun list") {
		t.Errorf("rendered output missing suggestion:\n%s", out)
	}
}

func TestIssue_RenderIncludesLinks(t *testing.T) {
	t.Parallel()

	out, err := Get(ExternalNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "python-poetry.org") {
		t.Errorf("rendered output missing link:\n%s", out)
	}
}

func TestIssueOf(t *testing.T) {
	t.Parallel()

	inner := NewErrorContext().
		WithOperation("probe container engine").
		WithIssue(ContainerEngineUnavailableId).
		Wrap(errors.New("daemon down")).
		BuildError()
	outer := WrapWithContext(inner, "run environment", "integration")

	iss, ok := IssueOf(outer)
	if !ok || iss.Id() != ContainerEngineUnavailableId {
		t.Errorf("IssueOf() = %v, %v; want ContainerEngineUnavailableId", iss, ok)
	}

	if _, ok := IssueOf(errors.New("plain")); ok {
		t.Error("IssueOf() on a plain error should report false")
	}
	if _, ok := IssueOf(WrapWithContext(errors.New("x"), "op", "")); ok {
		t.Error("IssueOf() without a linked issue should report false")
	}
}

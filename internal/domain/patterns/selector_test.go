package patterns

import (
	"strings"
	"testing"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

func TestCheckUnstableSelector(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"object literal", "useStore(s => ({ a: s.a }));", 1},
		{"array literal", "useStore(s => [s.a, s.b]);", 1},
		{"filter on state member", "useStore(s => s.items.filter(i => i.done));", 1},
		{"map behind a cast", "useStore((s: State) => s.items.map(i => i.id) as number[]);", 1},
		{"object values", "useStore((s) => Object.values(s.byId));", 1},
		{"block body return", "useStore(function (s) { if (s.x) { return s.x; } return { y: s.y }; });", 1},
		{"memo factory", "useMemo(() => ({ a: 1 }), []);", 1},
		{"primitive", "useStore(s => s.count);", 0},
		{"stable reference", "useStore(s => s.items);", 0},
		{"filter on foreign value", "useStore(s => other.filter(x => x));", 0},
		{"nested function return", "useStore(s => { const f = () => ({}); return s.a; });", 0},
		{"member callee", "store.useStore(s => ({}));", 0},
		{"not a hook", "getStore(s => ({}));", 0},
		{"selector by reference", "useStore(selectItems);", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, src := parseTSX(t, tt.src)

			findings := checkAll(CheckUnstableSelector, root, src, m.ScopeFrame{InComponent: true}, 1)
			if len(findings) != tt.want {
				t.Fatalf("expected %d findings, got %d: %v", tt.want, len(findings), findings)
			}

			for _, f := range findings {
				if f.Kind != m.FindingUnstableSelector {
					t.Errorf("expected unstable-selector, got %s", f.Kind)
				}

				if f.Line != 1 || f.Column != 1 {
					t.Errorf("expected finding at 1:1, got %d:%d", f.Line, f.Column)
				}
			}
		})
	}
}

func TestCheckUnstableSelector_MessageNamesHook(t *testing.T) {
	root, src := parseTSX(t, "useCart(s => ({ a: s.a }));")

	findings := checkAll(CheckUnstableSelector, root, src, m.ScopeFrame{}, 0)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}

	if !strings.Contains(findings[0].Message, "useCart()") || !strings.Contains(findings[0].Message, "a new object") {
		t.Errorf("unexpected message %q", findings[0].Message)
	}
}

func TestSelectorParam(t *testing.T) {
	tests := map[string]string{
		"useX(s => s);":                      "s",
		"useX((state) => state);":            "state",
		"useX((state: Root) => state);":      "state",
		"useX(function (st) { return st; });": "st",
		"useX(({ a }) => a);":                "",
		"useX(() => 1);":                     "",
	}

	for src, want := range tests {
		root, content := parseTSX(t, src)
		args := CallArguments(firstOfType(t, root, "call_expression"))

		if got := SelectorParam(args[0], content); got != want {
			t.Errorf("SelectorParam(%q) = %q, want %q", src, got, want)
		}
	}
}

package filter

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEnabledPrefixMatching(t *testing.T) {
	s := New([]string{"custom_target_2"})

	if !s.Enabled("custom_target_2") {
		t.Error("exact match should be enabled")
	}
	if !s.Enabled("custom_target_2::submodule") {
		t.Error("submodule of allowed target should be enabled")
	}
	if s.Enabled("custom_target_1") {
		t.Error("non-matching target should be disabled")
	}
	if s.Enabled("custom_target") {
		t.Error("prefix of a rule is not a match")
	}
}

func TestEmptySetAllowsAll(t *testing.T) {
	for _, s := range []*Set{New(nil), New([]string{}), Parse(""), Parse(" , ,")} {
		if !s.Empty() {
			t.Errorf("set %v should be empty", s.Rules())
		}
		for _, target := range []string{"a", "anything", "mod::sub", "custom_target_1"} {
			if !s.Enabled(target) {
				t.Errorf("empty set must enable %q", target)
			}
		}
	}
}

func TestParseTrimsAndDropsEmpty(t *testing.T) {
	s := Parse(" alpha , ,beta,, alpha ")
	got := s.Rules()
	want := []string{"alpha", "beta"}
	if len(got) != len(want) {
		t.Fatalf("rules = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rules = %v, want %v", got, want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvVar, "custom_target_2, other")
	s := FromEnv()
	if !s.Enabled("custom_target_2::sub") || !s.Enabled("otherwise") {
		t.Error("env-derived rules should match by prefix")
	}
	if s.Enabled("custom_target_1") {
		t.Error("env-derived rules should filter out other targets")
	}

	t.Setenv(EnvVar, "")
	if !FromEnv().Empty() {
		t.Error("unset/empty env var must yield the allow-all set")
	}
}

// smallWords is every string of length 0..3 over the alphabet {a, b}, giving
// exhaustive coverage of the prefix relation on a small domain.
func smallWords() []string {
	words := []string{""}
	for _, a := range "ab" {
		for _, b := range "ab" {
			for _, c := range "ab" {
				words = append(words,
					string(a), string(a)+string(b), string(a)+string(b)+string(c))
			}
		}
	}
	return words
}

func TestEnabledMatchesReferenceProperty(t *testing.T) {
	words := smallWords()
	wordGen := gen.IntRange(0, len(words)-1).Map(func(i int) string { return words[i] })

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("enabled iff empty rule set or some rule is a literal prefix", prop.ForAll(
		func(rules []string, target string) bool {
			s := New(rules)

			// Reference semantics, computed independently of Set.
			nonEmpty := 0
			want := false
			for _, rule := range rules {
				rule = strings.TrimSpace(rule)
				if rule == "" {
					continue
				}
				nonEmpty++
				if strings.HasPrefix(target, rule) {
					want = true
				}
			}
			if nonEmpty == 0 {
				want = true
			}

			return s.Enabled(target) == want
		},
		gen.SliceOf(wordGen),
		wordGen,
	))

	properties.Property("rule order and duplication never change the outcome", prop.ForAll(
		func(rules []string, target string) bool {
			forward := New(rules)

			reversed := make([]string, 0, len(rules)*2)
			for i := len(rules) - 1; i >= 0; i-- {
				reversed = append(reversed, rules[i], rules[i])
			}
			return forward.Enabled(target) == New(reversed).Enabled(target)
		},
		gen.SliceOf(wordGen),
		wordGen,
	))

	properties.TestingRun(t)
}

package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"chatwarden/pkg/compiler"
)

var ruleTypes = []compiler.EventType{
	compiler.EventChat, compiler.EventCommand, compiler.EventSign,
}

func randomPattern() (string, *regexp.Regexp) {
	count := rand.Intn(3) + 1
	words := make([]string, count)
	for i := range words {
		words[i] = strings.ToLower(gofakeit.Word())
	}
	text := fmt.Sprintf(`(?i)\b(%s)\b`, strings.Join(words, "|"))
	return text, regexp.MustCompile(text)
}

func generateRule(typ compiler.EventType, index int) *compiler.Rule {
	text, pattern := randomPattern()
	rule := &compiler.Rule{
		Type:        typ,
		Pattern:     pattern,
		PatternText: text,
	}
	rule.Name = fmt.Sprintf("generated-%s-%d", typ, index)

	switch rand.Intn(4) {
	case 0:
		rule.Warns = []compiler.WarnEntry{{
			ID:      rule.Name,
			Message: gofakeit.Sentence(6),
		}}
	case 1:
		rule.Points = []compiler.PointsGrant{{
			Set:    "spam",
			Amount: float64(rand.Intn(3) + 1),
		}}
	case 2:
		rule.Replacements = []string{strings.Repeat("*", rand.Intn(4)+3)}
	default:
		rule.Deny = true
		rule.DenyMessage = gofakeit.Sentence(5)
	}

	if rand.Float32() < 0.2 {
		rule.Delay = &compiler.Delay{Duration: time.Duration(rand.Intn(10)+1) * time.Second}
	}
	return rule
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func main() {
	numRules := flag.Int("rules", 100, "Number of rules to generate per type")
	outputDir := flag.String("output", "generated_rules", "Output directory")
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	for _, typ := range ruleTypes {
		rules := make([]*compiler.Rule, *numRules)
		for i := range rules {
			rules[i] = generateRule(typ, i+1)
		}
		path := filepath.Join(*outputDir, "rules", string(typ)+".txt")
		if err := writeFile(path, compiler.SerializeRules(rules, nil)); err != nil {
			fmt.Printf("Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	warnSets := map[string]*compiler.WarnSet{
		"spam": {
			Name: "spam",
			Actions: []compiler.WarnAction{
				{Threshold: 10, Commands: []string{"warn You have been muted for spamming."}},
				{Threshold: 5, Commands: []string{"warn Please slow down."}},
			},
			Decay: 1,
		},
	}
	warnPath := filepath.Join(*outputDir, "warnsets.txt")
	if err := writeFile(warnPath, compiler.SerializeWarnSets(warnSets)); err != nil {
		fmt.Printf("Error writing %s: %v\n", warnPath, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d rules per type in %s\n", *numRules, *outputDir)
}

// Package normalize cleans tabular records with declarative per-column
// rules. Each column's treatment is one Rule value, and rule tables are data
// that can ship as YAML instead of a pile of near-identical cleaning
// functions.
package normalize

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Record is one row of tabular data, values as strings.
type Record map[string]string

// Replacement rewrites values matching a regular expression.
type Replacement struct {
	Pattern string `yaml:"pattern"`
	With    string `yaml:"with"`
}

// Rule describes the cleaning applied to one column. Steps run in a fixed
// order: trim, replacements, code map, type coercion, zero padding, title
// casing.
type Rule struct {
	Column       string            `yaml:"column"`
	Type         string            `yaml:"type,omitempty"` // "", "bool", "float", "int", "date"
	CodeMap      map[string]string `yaml:"code_map,omitempty"`
	Replacements []Replacement     `yaml:"replacements,omitempty"`
	ZeroPad      int               `yaml:"zero_pad,omitempty"`
	DateLayout   string            `yaml:"date_layout,omitempty"`
	TitleCase    bool              `yaml:"title_case,omitempty"`
	// Ordered restricts the cleaned value to a known ordered category list.
	Ordered []string `yaml:"ordered,omitempty"`
}

// LoadRules reads a YAML rule table.
func LoadRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	if err := yaml.NewDecoder(r).Decode(&rules); err != nil {
		return nil, eris.Wrap(err, "normalize: decode rule table")
	}
	for i, rule := range rules {
		if rule.Column == "" {
			return nil, eris.Errorf("normalize: rule %d has no column", i)
		}
	}
	return rules, nil
}

var titleCaser = cases.Title(language.AmericanEnglish)

// Apply runs the rules over every record and returns cleaned copies. The
// input records are never modified. A value that fails its rule (bad number,
// bad date, category outside the ordered set) is an error naming the column.
func Apply(records []Record, rules []Rule) ([]Record, error) {
	compiled, err := compile(rules)
	if err != nil {
		return nil, err
	}

	out := make([]Record, len(records))
	for i, rec := range records {
		clean := make(Record, len(rec))
		for k, v := range rec {
			clean[k] = v
		}
		for _, rule := range compiled {
			if err := rule.apply(clean); err != nil {
				return nil, eris.Wrapf(err, "normalize: record %d", i)
			}
		}
		out[i] = clean
	}

	zap.L().With(zap.String("component", "normalize")).Debug("applied rules",
		zap.Int("records", len(records)), zap.Int("rules", len(rules)))
	return out, nil
}

type compiledRule struct {
	Rule
	patterns []*regexp.Regexp
	ordered  map[string]bool
}

func compile(rules []Rule) ([]compiledRule, error) {
	out := make([]compiledRule, len(rules))
	for i, rule := range rules {
		cr := compiledRule{Rule: rule}
		for _, rep := range rule.Replacements {
			re, err := regexp.Compile(rep.Pattern)
			if err != nil {
				return nil, eris.Wrapf(err, "normalize: column %s pattern %q", rule.Column, rep.Pattern)
			}
			cr.patterns = append(cr.patterns, re)
		}
		if len(rule.Ordered) > 0 {
			cr.ordered = make(map[string]bool, len(rule.Ordered))
			for _, v := range rule.Ordered {
				cr.ordered[v] = true
			}
		}
		out[i] = cr
	}
	return out, nil
}

func (r *compiledRule) apply(rec Record) error {
	v, ok := rec[r.Column]
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		rec[r.Column] = ""
		return nil
	}

	for i, re := range r.patterns {
		v = re.ReplaceAllString(v, r.Replacements[i].With)
	}

	if mapped, ok := r.CodeMap[v]; ok {
		v = mapped
	}

	switch r.Type {
	case "", "string":
	case "bool":
		b, err := coerceBool(v)
		if err != nil {
			return eris.Wrapf(err, "column %s", r.Column)
		}
		v = strconv.FormatBool(b)
	case "float":
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return eris.Errorf("column %s: %q is not a number", r.Column, v)
		}
		v = strconv.FormatFloat(f, 'g', -1, 64)
	case "int":
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return eris.Errorf("column %s: %q is not a number", r.Column, v)
		}
		v = strconv.FormatInt(int64(n), 10)
	case "date":
		layout := r.DateLayout
		if layout == "" {
			layout = "1/2/2006 3:04:05 PM"
		}
		ts, err := time.Parse(layout, v)
		if err != nil {
			return eris.Errorf("column %s: %q does not match date layout %q", r.Column, v, layout)
		}
		v = ts.Format("2006-01-02")
	default:
		return eris.Errorf("column %s: unknown type %q", r.Column, r.Type)
	}

	if r.ZeroPad > 0 && len(v) < r.ZeroPad {
		v = strings.Repeat("0", r.ZeroPad-len(v)) + v
	}
	if r.TitleCase {
		v = titleCaser.String(strings.ToLower(v))
	}
	if r.ordered != nil && !r.ordered[v] {
		return eris.Errorf("column %s: %q is outside the ordered set %v", r.Column, v, r.Ordered)
	}

	rec[r.Column] = v
	return nil
}

func coerceBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y":
		return true, nil
	case "0", "false", "f", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", v)
}

// Package agents contains the orchestration roles: clarifier, planner,
// router, safety gate, executor, and verifier.
package agents

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/example/natural-agent/internal/models"
)

// Intent is the typed result of parsing a goal or step once. Routing
// predicates and request building both read from it so extraction never
// happens twice with different rules.
type Intent struct {
	Text        string
	URL         string
	DSN         string
	SQL         string
	AptPackages []string
	PipPackages []string
}

var (
	httpURLRe = regexp.MustCompile(`https?://\S+`)
	dsnRe     = regexp.MustCompile(`\b[a-zA-Z][a-zA-Z0-9+]*://[^\s'"]+`)
	sqlRe     = regexp.MustCompile(`(?is)\b(select|insert|update|delete|create|drop)\b[\s\S]+`)
)

var dbSchemes = []string{"mysql", "postgres", "postgresql", "sqlite", "mssql", "mariadb"}

// knownAptPackages is the vocabulary the package extractor recognizes.
var knownAptPackages = []string{"git", "jq", "curl", "wget", "htop", "tree", "make", "sqlite3", "unzip"}

// ParseIntent extracts the routable facts from free text.
func ParseIntent(text string) Intent {
	in := Intent{Text: text}
	if m := httpURLRe.FindString(text); m != "" {
		m = strings.TrimRight(m, ".,;)")
		if u, err := url.Parse(m); err == nil && u.Host != "" {
			in.URL = m
		}
	}
	for _, cand := range dsnRe.FindAllString(text, -1) {
		scheme := strings.ToLower(strings.SplitN(cand, "://", 2)[0])
		scheme = strings.SplitN(scheme, "+", 2)[0]
		for _, s := range dbSchemes {
			if scheme == s {
				in.DSN = strings.TrimRight(cand, ".,;)")
			}
		}
	}
	if m := sqlRe.FindString(text); m != "" {
		in.SQL = strings.TrimSpace(m)
	}
	lower := strings.ToLower(text)
	if hasAny(lower, "install", "apt", "apt-get", "package") {
		for _, p := range knownAptPackages {
			if containsWord(lower, p) {
				in.AptPackages = append(in.AptPackages, p)
			}
		}
	}
	if strings.Contains(lower, "pip install") {
		for _, f := range strings.Fields(lower[strings.Index(lower, "pip install")+len("pip install"):]) {
			if regexp.MustCompile(`^[a-z0-9_-]+$`).MatchString(f) {
				in.PipPackages = append(in.PipPackages, f)
			} else {
				break
			}
		}
	}
	return in
}

// routingRule is one ordered predicate. First match wins; the order below is
// a policy decision, not incidental: URL and DSN detection deliberately come
// before the generic script/package vocabulary so a goal that merely mentions
// "python" while containing a URL still routes to web.
type routingRule struct {
	Name     string
	Category models.ToolCategory
	Match    func(Intent) bool
}

// RoutingOrder is the explicit priority list. Exported so tests can pin it.
var RoutingOrder = []routingRule{
	{"well-formed-url", models.CategoryWeb, func(in Intent) bool {
		return in.URL != ""
	}},
	{"dsn-plus-query", models.CategoryDatabase, func(in Intent) bool {
		lower := strings.ToLower(in.Text)
		mentionsDB := in.DSN != "" || hasAny(lower, dbSchemes...)
		return mentionsDB && (in.SQL != "" || hasAny(lower, "query", "sql", "select"))
	}},
	{"tabular-vocab", models.CategoryScript, func(in Intent) bool {
		lower := strings.ToLower(in.Text)
		return hasAny(lower, "pandas", "dataframe", "csv", "parquet", "python script", "data processing", "plot", "tabular")
	}},
	{"installer-vocab", models.CategoryPackage, func(in Intent) bool {
		lower := strings.ToLower(in.Text)
		return len(in.AptPackages) > 0 || len(in.PipPackages) > 0 || hasAny(lower, "install", "apt-get", "apt ", "pip install")
	}},
	{"fallback", models.CategoryFallback, func(Intent) bool { return true }},
}

// Route classifies free text into a tool category. Deterministic and
// side-effect free.
func Route(text string) models.ToolCategory {
	return RouteIntent(ParseIntent(text))
}

func RouteIntent(in Intent) models.ToolCategory {
	for _, rule := range RoutingOrder {
		if rule.Match(in) {
			return rule.Category
		}
	}
	return models.CategoryFallback
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	return re.MatchString(s)
}

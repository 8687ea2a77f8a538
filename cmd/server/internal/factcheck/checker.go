package factcheck

import (
	"io"
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/net/html"
)

// DefaultSimilarityThreshold is the ratio above which two names are treated as
// the same fact.
const DefaultSimilarityThreshold = 0.8

var (
	skillPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:JavaScript|TypeScript|Python|Java|C\+\+|C#|Go|Rust|Swift|Kotlin|PHP|Ruby|Scala)\b`),
		regexp.MustCompile(`(?i)\b(?:React|Vue|Angular|Node\.js|Express|Django|Flask|Spring|Laravel|jQuery|Bootstrap)\b`),
		regexp.MustCompile(`(?i)\b(?:AWS|Azure|GCP|Docker|Kubernetes|Jenkins|Git|MongoDB|PostgreSQL|MySQL|Redis)\b`),
		regexp.MustCompile(`(?i)\b(?:Machine Learning|AI|Data Science|DevOps|Agile|Scrum|TensorFlow|PyTorch)\b`),
		regexp.MustCompile(`(?i)\b[A-Z][a-z]*(?:\.js|\.py|\.net|\.io|\.jsx|\.tsx)\b`),
	}

	// 公司名后缀与缩写区分大小写，否则任意单词都会被识别为机构
	orgPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Inc|Corp|LLC|Ltd|Company|Technologies|Systems|Solutions|Group|Labs)\b`),
		regexp.MustCompile(`(?i)\b(?:Google|Microsoft|Apple|Amazon|Facebook|Meta|Netflix|Uber|Airbnb|Twitter|LinkedIn|GitHub|IBM|Oracle|Salesforce)\b`),
		regexp.MustCompile(`\b[A-Z]{3,}\b`),
	}

	metricPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:increased|improved|reduced|decreased|grew|gained|achieved|delivered)\s+(?:[a-z]+\s+){0,3}?(?:by\s+)?\d+(?:%|\s*percent\b|\s*times\b|x\b)`),
		regexp.MustCompile(`(?i)\b(?:team of|group of|led|managed)\s+\d+\b`),
		regexp.MustCompile(`(?i)\b(?:served|reached|impacted|affected)\s+\d+(?:M|K|million|thousand)\b`),
		regexp.MustCompile(`(?i)\b(?:saved|reduced|cut)\s+\$?\d+(?:M|K|million|thousand)\b`),
		regexp.MustCompile(`(?i)\b(?:over|more than|less than|under|above)\s+\d+(?:M|K|million|thousand|years|months)\b`),
	}
)

// Checker flags skills, organizations and metrics in a suggestion that cannot
// be matched against a resume's facts.
type Checker struct {
	threshold float64
	dmp       *diffmatchpatch.DiffMatchPatch
}

// NewChecker returns a Checker. A threshold outside (0, 1] falls back to
// DefaultSimilarityThreshold.
func NewChecker(threshold float64) *Checker {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Checker{threshold: threshold, dmp: diffmatchpatch.New()}
}

// BuildFactsInventory 从简历中提取技能、机构、职位与时间段
func (c *Checker) BuildFactsInventory(resume Resume) FactsInventory {
	inv := FactsInventory{
		Skills:         uniqueFold(resume.Skills),
		Organizations:  []string{},
		Roles:          []string{},
		Dates:          []DateRange{},
		Certifications: []string{},
	}
	var orgs, roles []string
	for _, exp := range resume.Experience {
		orgs = append(orgs, exp.Organization)
		roles = append(roles, exp.Role)
		inv.Dates = append(inv.Dates, DateRange{Start: exp.StartDate, End: exp.EndDate})
	}
	inv.Organizations = uniqueFold(orgs)
	inv.Roles = uniqueFold(roles)
	return inv
}

// CheckSuggestion checks the plain text of a markup suggestion against inv.
func (c *Checker) CheckSuggestion(suggestion string, inv FactsInventory) RiskFlags {
	text := PlainText(suggestion)
	return RiskFlags{
		NewSkill:           c.unknown(findAll(skillPatterns, text), inv.Skills),
		NewOrg:             c.unknown(findAll(orgPatterns, text), inv.Organizations),
		UnverifiableMetric: findAll(metricPatterns, text),
	}
}

func (c *Checker) unknown(found, existing []string) []string {
	out := []string{}
	for _, item := range found {
		if !c.isSimilarToExisting(item, existing) {
			out = append(out, item)
		}
	}
	return out
}

// isSimilarToExisting matches case-insensitively, by containment in either
// direction, or by similarity ratio.
func (c *Checker) isSimilarToExisting(item string, existing []string) bool {
	itemLower := strings.ToLower(item)
	for _, e := range existing {
		eLower := strings.ToLower(e)
		if itemLower == eLower {
			return true
		}
		if strings.Contains(eLower, itemLower) || strings.Contains(itemLower, eLower) {
			return true
		}
		if c.Ratio(itemLower, eLower) >= c.threshold {
			return true
		}
	}
	return false
}

// Ratio returns 2*M/T where M is the number of runes the two strings share in
// a character diff and T their combined rune length.
func (c *Checker) Ratio(a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 1
	}
	matched := 0
	for _, d := range c.dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += len([]rune(d.Text))
		}
	}
	return 2 * float64(matched) / float64(total)
}

// PlainText 提取富文本中的文本内容，标签之间以空格分隔
func PlainText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				// 解析失败时退回原文
				return markup
			}
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		default:
			b.WriteByte(' ')
		}
	}
}

func findAll(patterns []*regexp.Regexp, text string) []string {
	var found []string
	for _, p := range patterns {
		found = append(found, p.FindAllString(text, -1)...)
	}
	return uniqueFold(found)
}

// uniqueFold 去重（忽略大小写），保留首次出现的顺序
func uniqueFold(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		key := strings.ToLower(it)
		if it == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

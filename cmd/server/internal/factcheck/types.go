package factcheck

// DateRange 经历起止时间 (YYYY-MM)，End 为空表示至今
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// ExperienceEntry 工作经历
type ExperienceEntry struct {
	Role         string   `json:"role"`
	Organization string   `json:"organization"`
	Location     string   `json:"location,omitempty"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate,omitempty"`
	Bullets      []string `json:"bullets"`
}

// Resume is the subset of a resume needed to check a suggestion.
type Resume struct {
	Title      string            `json:"title"`
	Summary    string            `json:"summary"`
	Experience []ExperienceEntry `json:"experience"`
	Skills     []string          `json:"skills"`
}

// FactsInventory 简历中可验证事实的集合
type FactsInventory struct {
	Skills         []string    `json:"skills"`
	Organizations  []string    `json:"organizations"`
	Roles          []string    `json:"roles"`
	Dates          []DateRange `json:"dates"`
	Certifications []string    `json:"certifications"`
}

// RiskFlags lists claims in a suggestion that the resume does not back up.
type RiskFlags struct {
	NewSkill           []string `json:"new_skill"`
	NewOrg             []string `json:"new_org"`
	UnverifiableMetric []string `json:"unverifiable_metric"`
}

// Empty reports whether no risk was flagged.
func (r RiskFlags) Empty() bool {
	return len(r.NewSkill)+len(r.NewOrg)+len(r.UnverifiableMetric) == 0
}

package history

import (
	"errors"
	"fmt"
	"time"
)

// MaxEntries is the number of change entries kept per section.
const MaxEntries = 10

// ErrChangeNotFound is returned when no section holds a change with the given id.
var ErrChangeNotFound = errors.New("change not found")

// Action 变更动作类型
type Action string

const (
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionRestore Action = "restore"
)

// ParseAction converts s into an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAccept, ActionReject, ActionRestore:
		return a, nil
	default:
		return "", fmt.Errorf("invalid action %q (must be: accept, reject, restore)", s)
	}
}

// ChangeEntry 一次被记录的章节变更，创建后不再修改
type ChangeEntry struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	SectionID       string    `json:"sectionId"`
	OriginalContent string    `json:"originalContent"`
	NewContent      string    `json:"newContent"`
	Rationale       string    `json:"rationale,omitempty"`
	Action          Action    `json:"action"`
}

// SectionHistory holds the capped change log of one section, oldest first.
// OriginalContent is fixed by the first recorded change; CurrentContent always
// equals the NewContent of the newest entry.
type SectionHistory struct {
	SectionID       string        `json:"sectionId"`
	Changes         []ChangeEntry `json:"changes"`
	OriginalContent string        `json:"originalContent"`
	CurrentContent  string        `json:"currentContent"`
}

func (h *SectionHistory) clone() SectionHistory {
	c := *h
	c.Changes = append([]ChangeEntry(nil), h.Changes...)
	return c
}

func cloneAll(all map[string]*SectionHistory) map[string]*SectionHistory {
	out := make(map[string]*SectionHistory, len(all))
	for id, h := range all {
		if h == nil {
			continue
		}
		c := h.clone()
		out[id] = &c
	}
	return out
}

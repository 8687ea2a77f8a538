package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/houzhh15/resumedit/cmd/server/internal/audit"
	"github.com/houzhh15/resumedit/cmd/server/internal/factcheck"
	"github.com/houzhh15/resumedit/cmd/server/internal/history"
	"github.com/houzhh15/resumedit/cmd/server/internal/simhash"
	"github.com/houzhh15/resumedit/pkg/logger"
	"github.com/houzhh15/resumedit/pkg/markupdiff"
	"github.com/houzhh15/resumedit/pkg/metrics"
)

// ErrInvalidRequest marks validation failures of an edit request.
var ErrInvalidRequest = errors.New("invalid request")

// MaxRationaleLength 编辑理由最大字符数
const MaxRationaleLength = 500

// SectionType 简历章节类型
type SectionType string

const (
	SectionTitle      SectionType = "title"
	SectionSummary    SectionType = "summary"
	SectionExperience SectionType = "experience"
	SectionSkills     SectionType = "skills"
)

func (t SectionType) valid() bool {
	switch t {
	case SectionTitle, SectionSummary, SectionExperience, SectionSkills:
		return true
	}
	return false
}

// EditRequest 章节编辑请求
type EditRequest struct {
	SectionID       string            `json:"sectionId"`
	SectionType     SectionType       `json:"sectionType"`
	OriginalContent string            `json:"originalContent"`
	NewContent      string            `json:"newContent"`
	Rationale       string            `json:"rationale,omitempty"`
	Action          string            `json:"action"`
	Resume          *factcheck.Resume `json:"resume,omitempty"`
}

// EditResponse 章节编辑结果
type EditResponse struct {
	Success        bool                 `json:"success"`
	Message        string               `json:"message"`
	SectionID      string               `json:"sectionId"`
	UpdatedContent string               `json:"updatedContent"`
	Timestamp      time.Time            `json:"timestamp"`
	ChangeID       string               `json:"changeId,omitempty"`
	RiskFlags      *factcheck.RiskFlags `json:"riskFlags,omitempty"`
}

// DiffPreview 差异预览
type DiffPreview struct {
	HTML       string                 `json:"html"`
	Tokens     []markupdiff.DiffToken `json:"tokens"`
	Summary    markupdiff.Summary     `json:"summary"`
	Similarity simhash.Similarity     `json:"similarity"`
}

// SectionHistoryView 章节历史快照，Changes 按时间倒序
type SectionHistoryView struct {
	SectionID       string                `json:"sectionId"`
	OriginalContent string                `json:"originalContent"`
	CurrentContent  string                `json:"currentContent"`
	Changes         []history.ChangeEntry `json:"changes"`
}

type operatorKey struct{}

// WithOperator attaches the acting client to ctx for audit records.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

func operatorFrom(ctx context.Context) string {
	if op, ok := ctx.Value(operatorKey{}).(string); ok && op != "" {
		return op
	}
	return "system"
}

// EditService applies section edits, records them in the history store and
// produces diff previews.
type EditService struct {
	store        *history.Store
	checker      *factcheck.Checker
	fingerprints *simhash.FingerprintCache
	audit        audit.AuditLogger
	logger       *slog.Logger
	opts         markupdiff.Options
}

// NewEditService 创建编辑服务，auditLogger 为 nil 时不记录审计日志
func NewEditService(store *history.Store, checker *factcheck.Checker, auditLogger audit.AuditLogger, l *slog.Logger, opts markupdiff.Options) *EditService {
	if auditLogger == nil {
		auditLogger = audit.NopAuditLogger{}
	}
	if l == nil {
		l = logger.Discard()
	}
	if checker == nil {
		checker = factcheck.NewChecker(factcheck.DefaultSimilarityThreshold)
	}
	return &EditService{
		store:        store,
		checker:      checker,
		fingerprints: simhash.NewFingerprintCache(simhash.DefaultCacheCapacity),
		audit:        auditLogger,
		logger:       l.With("component", "edit_service"),
		opts:         opts,
	}
}

// DefaultOptions returns the diff options applied when a request sets none.
func (s *EditService) DefaultOptions() markupdiff.Options {
	return s.opts
}

// ValidateEditRequest checks req and returns its parsed action. All problems
// are reported together, wrapped in ErrInvalidRequest.
func ValidateEditRequest(req *EditRequest) (history.Action, error) {
	var problems []string

	if strings.TrimSpace(req.SectionID) == "" {
		problems = append(problems, "sectionId is required")
	}
	if !req.SectionType.valid() {
		problems = append(problems, fmt.Sprintf("invalid sectionType %q (must be: title, summary, experience, skills)", req.SectionType))
	}
	action, err := history.ParseAction(req.Action)
	if err != nil {
		problems = append(problems, err.Error())
	}
	if n := utf8.RuneCountInString(req.Rationale); n > MaxRationaleLength {
		problems = append(problems, fmt.Sprintf("rationale is %d characters (max %d)", n, MaxRationaleLength))
	}

	if len(problems) > 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return action, nil
}

// ApplyEdit records an accept, reject or restore decision for a section.
//
// An accepted or restored edit makes NewContent current. A rejected edit is
// recorded as a no-op transition that keeps OriginalContent; the rejected
// proposal only reaches the audit log.
func (s *EditService) ApplyEdit(ctx context.Context, req *EditRequest) (*EditResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	action, err := ValidateEditRequest(req)
	if err != nil {
		return nil, err
	}

	var flags *factcheck.RiskFlags
	if req.Resume != nil && action != history.ActionReject {
		inv := s.checker.BuildFactsInventory(*req.Resume)
		f := s.checker.CheckSuggestion(req.NewContent, inv)
		flags = &f
		if !f.Empty() {
			s.logger.Info("edit flagged by fact check",
				"section_id", req.SectionID,
				"new_skill", len(f.NewSkill),
				"new_org", len(f.NewOrg),
				"unverifiable_metric", len(f.UnverifiableMetric),
			)
		}
	}

	updated := req.NewContent
	message := "Edit applied successfully"
	auditAction := audit.ActionEditAccept
	switch action {
	case history.ActionReject:
		updated = req.OriginalContent
		message = "Edit rejected"
		auditAction = audit.ActionEditReject
	case history.ActionRestore:
		message = "Content restored"
		auditAction = audit.ActionEditRestore
	}

	entry := s.store.AddChange(req.SectionID, req.OriginalContent, updated, action, req.Rationale)

	s.logger.Info("edit recorded",
		"section_id", req.SectionID,
		"section_type", req.SectionType,
		"action", action,
		"change_id", entry.ID,
	)
	s.writeAudit(ctx, auditAction, req.SectionID, len(req.OriginalContent), len(req.NewContent), entry.ID)

	return &EditResponse{
		Success:        true,
		Message:        message,
		SectionID:      req.SectionID,
		UpdatedContent: updated,
		Timestamp:      entry.Timestamp,
		ChangeID:       entry.ID,
		RiskFlags:      flags,
	}, nil
}

// Restore makes the content of a recorded change current again. The restore is
// itself recorded as a new change.
func (s *EditService) Restore(ctx context.Context, changeID string) (*EditResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := s.store.FindChange(changeID)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", changeID, err)
	}

	restored := s.store.RestoreToChange(target)

	s.logger.Info("change restored",
		"section_id", restored.SectionID,
		"from_change_id", changeID,
		"change_id", restored.ID,
	)
	s.writeAudit(ctx, audit.ActionEditRestore, restored.SectionID, len(restored.OriginalContent), len(restored.NewContent), restored.ID)

	return &EditResponse{
		Success:        true,
		Message:        fmt.Sprintf("Restored change %s", changeID),
		SectionID:      restored.SectionID,
		UpdatedContent: restored.NewContent,
		Timestamp:      restored.Timestamp,
		ChangeID:       restored.ID,
	}, nil
}

// History returns the newest limit changes of a section. The second result is
// false when the section has no history.
func (s *EditService) History(sectionID string, limit int) (SectionHistoryView, bool) {
	h, ok := s.store.GetSectionHistory(sectionID)
	if !ok {
		return SectionHistoryView{SectionID: sectionID, Changes: []history.ChangeEntry{}}, false
	}
	return SectionHistoryView{
		SectionID:       h.SectionID,
		OriginalContent: h.OriginalContent,
		CurrentContent:  h.CurrentContent,
		Changes:         s.store.GetRecentChanges(sectionID, limit),
	}, true
}

// ClearSection 清空单个章节的历史，章节不存在时无操作
func (s *EditService) ClearSection(ctx context.Context, sectionID string) {
	s.store.ClearSectionHistory(sectionID)
	s.logger.Info("section history cleared", "section_id", sectionID)
	if err := s.audit.LogActionSimple(operatorFrom(ctx), audit.ActionClearSection, sectionID, ""); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
}

// ClearAll 清空全部历史
func (s *EditService) ClearAll(ctx context.Context) {
	sections := len(s.store.SectionIDs())
	s.store.ClearAllHistory()
	s.logger.Info("all history cleared", "sections", sections)
	if err := s.audit.LogActionSimple(operatorFrom(ctx), audit.ActionClearAll, "*", fmt.Sprintf("%d sections", sections)); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
}

// Preview diffs two markup versions and renders the result.
func (s *EditService) Preview(original, current string, opts markupdiff.Options) DiffPreview {
	start := time.Now()
	tokens := markupdiff.DiffMarkup(original, current, opts)
	html := markupdiff.Render(tokens)
	summary := markupdiff.Summarize(tokens)
	metrics.RecordDiff("markup", time.Since(start).Seconds(), summary.Added, summary.Removed, summary.Unchanged)

	return DiffPreview{
		HTML:       html,
		Tokens:     tokens,
		Summary:    summary,
		Similarity: s.fingerprints.Compare(original, current),
	}
}

// PreviewText diffs two plain-text versions run by run, without markup
// awareness.
func (s *EditService) PreviewText(original, current string, opts markupdiff.Options) DiffPreview {
	start := time.Now()
	tokens := markupdiff.DiffText(original, current, opts)
	summary := markupdiff.Summarize(tokens)
	metrics.RecordDiff("text", time.Since(start).Seconds(), summary.Added, summary.Removed, summary.Unchanged)

	return DiffPreview{
		HTML:       markupdiff.Render(tokens),
		Tokens:     tokens,
		Summary:    summary,
		Similarity: s.fingerprints.Compare(original, current),
	}
}

func (s *EditService) writeAudit(ctx context.Context, action audit.AuditAction, sectionID string, beforeLen, afterLen int, changeID string) {
	err := s.audit.LogAction(operatorFrom(ctx), action, sectionID,
		map[string]int{"chars": beforeLen},
		map[string]int{"chars": afterLen},
		changeID,
	)
	if err != nil {
		s.logger.Warn("audit write failed", "section_id", sectionID, "error", err)
	}
}

package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/resumedit/cmd/server/internal/audit"
	"github.com/houzhh15/resumedit/cmd/server/internal/factcheck"
	"github.com/houzhh15/resumedit/cmd/server/internal/history"
	"github.com/houzhh15/resumedit/pkg/markupdiff"
)

type auditRecord struct {
	operator   string
	action     audit.AuditAction
	resourceID string
	details    string
}

type recordingAudit struct {
	mu      sync.Mutex
	records []auditRecord
}

func (r *recordingAudit) LogAction(operator string, action audit.AuditAction, resourceID string, before, after interface{}, details string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, auditRecord{operator, action, resourceID, details})
	return nil
}

func (r *recordingAudit) LogActionSimple(operator string, action audit.AuditAction, resourceID string, details string) error {
	return r.LogAction(operator, action, resourceID, nil, nil, details)
}

func newTestService(t *testing.T) (*EditService, *history.Store, *recordingAudit) {
	t.Helper()
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	store := history.NewStore(history.NewMemoryStorage(), history.WithClock(clock))
	rec := &recordingAudit{}
	svc := NewEditService(store, factcheck.NewChecker(0.8), rec, nil, markupdiff.Options{})
	return svc, store, rec
}

func TestValidateEditRequest(t *testing.T) {
	action, err := ValidateEditRequest(&EditRequest{
		SectionID:   "summary_0",
		SectionType: SectionSummary,
		Action:      "accept",
	})
	require.NoError(t, err)
	assert.Equal(t, history.ActionAccept, action)

	_, err = ValidateEditRequest(&EditRequest{
		SectionType: "education",
		Action:      "merge",
		Rationale:   strings.Repeat("x", MaxRationaleLength+1),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Contains(t, err.Error(), "sectionId is required")
	assert.Contains(t, err.Error(), "sectionType")
	assert.Contains(t, err.Error(), "invalid action")
	assert.Contains(t, err.Error(), "rationale")
}

func TestApplyEdit_Accept(t *testing.T) {
	svc, store, rec := newTestService(t)
	ctx := WithOperator(context.Background(), "10.0.0.1")

	resp, err := svc.ApplyEdit(ctx, &EditRequest{
		SectionID:       "experience_0",
		SectionType:     SectionExperience,
		OriginalContent: "Led team",
		NewContent:      "Led team of 5",
		Rationale:       "quantify",
		Action:          "accept",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Led team of 5", resp.UpdatedContent)
	assert.True(t, strings.HasPrefix(resp.ChangeID, "chg_"))
	assert.Nil(t, resp.RiskFlags)

	h, ok := store.GetSectionHistory("experience_0")
	require.True(t, ok)
	assert.Equal(t, "Led team", h.OriginalContent)
	assert.Equal(t, "Led team of 5", h.CurrentContent)

	require.Len(t, rec.records, 1)
	assert.Equal(t, auditRecord{"10.0.0.1", audit.ActionEditAccept, "experience_0", resp.ChangeID}, rec.records[0])
}

func TestApplyEdit_RejectKeepsOriginal(t *testing.T) {
	svc, store, rec := newTestService(t)

	resp, err := svc.ApplyEdit(context.Background(), &EditRequest{
		SectionID:       "title",
		SectionType:     SectionTitle,
		OriginalContent: "Engineer",
		NewContent:      "Chief Everything Officer",
		Action:          "reject",
	})
	require.NoError(t, err)
	assert.Equal(t, "Engineer", resp.UpdatedContent)

	changes := store.GetRecentChanges("title", 0)
	require.Len(t, changes, 1)
	assert.Equal(t, history.ActionReject, changes[0].Action)
	assert.Equal(t, "Engineer", changes[0].NewContent)
	assert.Equal(t, audit.ActionEditReject, rec.records[0].action)
	assert.Equal(t, "system", rec.records[0].operator)
}

func TestApplyEdit_RiskFlags(t *testing.T) {
	svc, _, _ := newTestService(t)

	resp, err := svc.ApplyEdit(context.Background(), &EditRequest{
		SectionID:       "experience_0",
		SectionType:     SectionExperience,
		OriginalContent: "Built services",
		NewContent:      "<p>Built services at Google with Django</p>",
		Action:          "accept",
		Resume: &factcheck.Resume{
			Skills:     []string{"Python"},
			Experience: []factcheck.ExperienceEntry{{Role: "Engineer", Organization: "TechCorp Inc.", StartDate: "2021-03"}},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.RiskFlags)
	assert.Contains(t, resp.RiskFlags.NewOrg, "Google")
	assert.Contains(t, resp.RiskFlags.NewSkill, "Django")
}

func TestApplyEdit_Invalid(t *testing.T) {
	svc, store, rec := newTestService(t)

	_, err := svc.ApplyEdit(context.Background(), &EditRequest{SectionID: "x", SectionType: SectionSkills, Action: "nope"})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Empty(t, store.SectionIDs())
	assert.Empty(t, rec.records)
}

func TestApplyEdit_CancelledContext(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ApplyEdit(ctx, &EditRequest{SectionID: "x", SectionType: SectionSkills, Action: "accept"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.SectionIDs())
}

func TestRestore(t *testing.T) {
	svc, store, rec := newTestService(t)
	ctx := context.Background()

	first, err := svc.ApplyEdit(ctx, &EditRequest{SectionID: "summary_0", SectionType: SectionSummary, OriginalContent: "v1", NewContent: "v2", Action: "accept"})
	require.NoError(t, err)
	_, err = svc.ApplyEdit(ctx, &EditRequest{SectionID: "summary_0", SectionType: SectionSummary, OriginalContent: "v2", NewContent: "v3", Action: "accept"})
	require.NoError(t, err)

	resp, err := svc.Restore(ctx, first.ChangeID)
	require.NoError(t, err)
	assert.Equal(t, "v2", resp.UpdatedContent)
	assert.Equal(t, "summary_0", resp.SectionID)
	assert.NotEqual(t, first.ChangeID, resp.ChangeID)

	changes := store.GetRecentChanges("summary_0", 0)
	require.Len(t, changes, 3)
	assert.Equal(t, history.ActionRestore, changes[0].Action)
	assert.Equal(t, "v3", changes[0].OriginalContent)
	assert.Equal(t, "v2", changes[0].NewContent)
	assert.Equal(t, audit.ActionEditRestore, rec.records[len(rec.records)-1].action)
}

func TestRestore_UnknownChange(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Restore(context.Background(), "chg_missing")
	assert.ErrorIs(t, err, history.ErrChangeNotFound)
}

func TestHistoryAndClear(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	for i, content := range []string{"b", "c", "d"} {
		_, err := svc.ApplyEdit(ctx, &EditRequest{SectionID: "skills", SectionType: SectionSkills, OriginalContent: string(rune('a' + i)), NewContent: content, Action: "accept"})
		require.NoError(t, err)
	}
	_, err := svc.ApplyEdit(ctx, &EditRequest{SectionID: "title", SectionType: SectionTitle, OriginalContent: "x", NewContent: "y", Action: "accept"})
	require.NoError(t, err)

	view, ok := svc.History("skills", 2)
	require.True(t, ok)
	assert.Equal(t, "a", view.OriginalContent)
	assert.Equal(t, "d", view.CurrentContent)
	require.Len(t, view.Changes, 2)
	assert.Equal(t, "d", view.Changes[0].NewContent)

	svc.ClearSection(ctx, "skills")
	_, ok = svc.History("skills", 0)
	assert.False(t, ok)

	svc.ClearAll(ctx)
	empty, ok := svc.History("title", 0)
	assert.False(t, ok)
	assert.NotNil(t, empty.Changes)

	last := rec.records[len(rec.records)-1]
	assert.Equal(t, audit.ActionClearAll, last.action)
	assert.Equal(t, "1 sections", last.details)
}

func TestPreview(t *testing.T) {
	svc, _, _ := newTestService(t)

	p := svc.Preview("Hello world", "Hello beautiful world", svc.DefaultOptions())
	assert.Equal(t, `Hello <span class="diff-added">beautiful </span>world`, p.HTML)
	assert.Equal(t, 2, p.Summary.Added)
	assert.Equal(t, 0, p.Summary.Removed)
	assert.Equal(t, "Hello world", markupdiff.Original(p.Tokens))
	assert.Equal(t, "Hello beautiful world", markupdiff.Current(p.Tokens))

	same := svc.Preview("<p>Same</p>", "<p>Same</p>", markupdiff.Options{})
	assert.False(t, same.Summary.Changed())
	assert.True(t, same.Similarity.Similar)
}

func TestPreviewText(t *testing.T) {
	svc, _, _ := newTestService(t)

	p := svc.PreviewText("a b c", "a c", markupdiff.Options{})
	assert.Equal(t, "a b c", markupdiff.Original(p.Tokens))
	assert.Equal(t, "a c", markupdiff.Current(p.Tokens))
	assert.True(t, p.Summary.Changed())
}

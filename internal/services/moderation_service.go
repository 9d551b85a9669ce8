package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nyaynow/confessions-backend/internal/dto"
	"github.com/nyaynow/confessions-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrReportTarget   = errors.New("reported content not found")
	ErrInvalidReport  = errors.New("invalid report")
	ErrInvalidAction  = errors.New("invalid status: must be reviewed, actioned, or dismissed")
	ErrUnknownTarget  = errors.New("invalid content_type: must be confession or reply")
)

const maxReportReasonLen = 500

// BannedWords are rejected in confessions and replies. Words that describe
// legal problems (scam, phishing, nude) are deliberately absent.
var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
}

// TargetLookup reports whether reportable content with id exists.
type TargetLookup func(ctx context.Context, id uuid.UUID) (bool, error)

type ModerationService struct {
	db                *gorm.DB
	bannedWordRegexps []*regexp.Regexp
	urlPattern        *regexp.Regexp
	emailPattern      *regexp.Regexp
	phonePattern      *regexp.Regexp
	aadhaarPattern    *regexp.Regexp
	yearPattern       *regexp.Regexp
	panPattern        *regexp.Regexp

	mu      sync.RWMutex
	targets map[string]TargetLookup
}

func NewModerationService(db *gorm.DB) *ModerationService {
	ms := &ModerationService{db: db, targets: make(map[string]TargetLookup)}
	ms.compilePatterns()
	return ms
}

func (ms *ModerationService) compilePatterns() {
	ms.bannedWordRegexps = make([]*regexp.Regexp, 0, len(BannedWords))
	for _, word := range BannedWords {
		pattern := `(?i)\b` + regexp.QuoteMeta(word) + `\b`
		re, err := regexp.Compile(pattern)
		if err == nil {
			ms.bannedWordRegexps = append(ms.bannedWordRegexps, re)
		}
	}

	ms.urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`)
	ms.emailPattern = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	// Indian mobile numbers: optional +91 or 0, then ten digits starting 6-9.
	ms.phonePattern = regexp.MustCompile(`(?:\+91[-\s]?|\b0?)[6-9]\d{4}[-\s]?\d{5}\b`)
	// Aadhaar numbers never start with 0 or 1.
	ms.aadhaarPattern = regexp.MustCompile(`\b([2-9]\d{3})[\s-]?(\d{4})[\s-]?(\d{4})\b`)
	ms.yearPattern = regexp.MustCompile(`^(?:19|20)\d\d$`)
	ms.panPattern = regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`)
}

// RegisterTarget makes contentType reportable. Lookups registered later
// replace earlier ones.
func (ms *ModerationService) RegisterTarget(contentType string, lookup TargetLookup) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.targets[contentType] = lookup
}

// FilterContent returns false and a reason code when text would be
// offensive or could identify its author.
func (ms *ModerationService) FilterContent(text string) (bool, string) {
	if text == "" {
		return true, ""
	}
	for _, re := range ms.bannedWordRegexps {
		if re.MatchString(text) {
			return false, "inappropriate_language"
		}
	}
	if ms.urlPattern.MatchString(text) {
		return false, "url_not_allowed"
	}
	if ms.emailPattern.MatchString(text) {
		return false, "contact_info_not_allowed"
	}
	if ms.hasAadhaar(text) || ms.panPattern.MatchString(text) {
		return false, "identity_number_not_allowed"
	}
	if ms.phonePattern.MatchString(text) {
		return false, "contact_info_not_allowed"
	}
	return true, ""
}

// hasAadhaar skips 4-4-4 groups that are all years, as in "2021 2022 2023".
func (ms *ModerationService) hasAadhaar(text string) bool {
	for _, m := range ms.aadhaarPattern.FindAllStringSubmatch(text, -1) {
		if ms.yearPattern.MatchString(m[1]) && ms.yearPattern.MatchString(m[2]) && ms.yearPattern.MatchString(m[3]) {
			continue
		}
		return true
	}
	return false
}

func (ms *ModerationService) GetRejectionMessage(reason string) string {
	messages := map[string]string{
		"inappropriate_language":      "Your post contains inappropriate language.",
		"url_not_allowed":             "URLs and web links are not allowed.",
		"contact_info_not_allowed":    "Contact information is not allowed; it could reveal who you are.",
		"identity_number_not_allowed": "Aadhaar, PAN and similar numbers are not allowed; they could reveal who you are.",
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return "Your post does not meet our content guidelines."
}

func (ms *ModerationService) CreateReport(ctx context.Context, reporterID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, error) {
	ms.mu.RLock()
	lookup, ok := ms.targets[req.ContentType]
	ms.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownTarget
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidReport)
	}
	if utf8.RuneCountInString(reason) > maxReportReasonLen {
		return nil, fmt.Errorf("%w: reason must be at most %d characters", ErrInvalidReport, maxReportReasonLen)
	}

	exists, err := lookup(ctx, req.ContentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up reported content: %w", err)
	}
	if !exists {
		return nil, ErrReportTarget
	}

	report := models.Report{
		ReporterID:  reporterID,
		ContentType: req.ContentType,
		ContentID:   req.ContentID,
		Reason:      reason,
		Status:      "pending",
	}
	if err := ms.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

func (ms *ModerationService) ListReports(ctx context.Context, status string, limit, offset int) ([]models.Report, int64, error) {
	var reports []models.Report
	var total int64

	query := ms.db.WithContext(ctx).Model(&models.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (ms *ModerationService) ActionReport(ctx context.Context, reportID uuid.UUID, req *dto.ActionReportRequest) error {
	validStatuses := map[string]bool{"reviewed": true, "actioned": true, "dismissed": true}
	if !validStatuses[req.Status] {
		return ErrInvalidAction
	}

	result := ms.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", reportID).
		Updates(map[string]interface{}{
			"status":     req.Status,
			"admin_note": req.AdminNote,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

// internal/intake/assembler/assembler.go
package assembler

import (
	"fmt"
	"html"
	"strings"
	"time"

	"taf-intake/internal/common/errors"
	"taf-intake/internal/common/logger"
	"taf-intake/internal/common/metrics"
	"taf-intake/internal/intake/blacklist"
	"taf-intake/internal/intake/criteria"
	"taf-intake/internal/models"

	"github.com/microcosm-cc/bluemonday"
)

const (
	Component = "record-assembler"

	// noAssistant is the placeholder the form sends when no assistant was present.
	noAssistant = "N/A"

	maxUnescapePasses = 8
)

// Assembler builds CandidateRecords from submissions. It re-checks the
// blacklist and the transfer-rules acceptance the form already gates on.
type Assembler struct {
	config    *Config
	gate      blacklist.Gate
	sanitizer *bluemonday.Policy
	logger    logger.Logger
}

func New(config *Config, gate blacklist.Gate, log logger.Logger) *Assembler {
	return &Assembler{
		config:    config,
		gate:      gate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    log.WithFields(map[string]interface{}{"component": Component}),
	}
}

// Assemble validates in and returns the record to persist. ID and CreatedAt
// are left for the store.
func (a *Assembler) Assemble(in Input) (*models.CandidateRecord, error) {
	name := a.clean(in.Candidate.Name)
	passportID := strings.TrimSpace(in.Candidate.PassportID)
	recruiter := a.clean(in.Candidate.RecruiterName)

	var missing []string
	if name == "" {
		missing = append(missing, "candidateName")
	}
	if passportID == "" {
		missing = append(missing, "passportId")
	}
	if recruiter == "" {
		missing = append(missing, "recruiterName")
	}
	if len(missing) > 0 {
		return nil, errors.NewValidationError("Campos obrigatórios faltando", strings.Join(missing, ", "))
	}

	if !in.AcceptedTransferRules {
		return nil, errors.NewValidationError("As regras de transferência precisam ser aceitas", "acceptedTransferRules: false")
	}

	if a.gate.IsBlacklisted(passportID) {
		return nil, errors.NewBlacklistBlockError(passportID)
	}

	if err := in.Criteria.Validate(); err != nil {
		return nil, err
	}

	photo, err := a.photo(in.Candidate.Photo)
	if err != nil {
		return nil, err
	}

	date := in.Candidate.Date
	if date.IsZero() {
		return nil, errors.NewValidationError("Campos obrigatórios faltando", "date")
	}

	a.checkStatus(passportID, in)

	return &models.CandidateRecord{
		CandidateName:          name,
		PassportID:             passportID,
		RecruiterName:          recruiter,
		AssistantRecruiterName: a.assistant(in.Candidate.AssistantRecruiterName),
		Photo:                  photo,
		Date:                   date.UTC().Truncate(time.Microsecond),
		Criteria:               in.Criteria.Labeled(),
		PostRecruitment:        in.PostRecruitment.Labeled(),
		Status:                 in.Status,
		AcceptedTransferRules:  in.AcceptedTransferRules,
	}, nil
}

// clean strips markup from free text and trims it. Entities are decoded
// before sanitizing so encoded tags cannot pass the policy as text; the
// final unescape only restores what the sanitizer itself escaped.
func (a *Assembler) clean(s string) string {
	for i := 0; i < maxUnescapePasses; i++ {
		decoded := html.UnescapeString(s)
		if decoded == s {
			break
		}
		s = decoded
	}
	return strings.TrimSpace(html.UnescapeString(a.sanitizer.Sanitize(s)))
}

func (a *Assembler) assistant(s string) *string {
	s = a.clean(s)
	if s == "" || s == noAssistant {
		return nil
	}
	return &s
}

func (a *Assembler) photo(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if a.config.MaxPhotoBytes > 0 && len(s) > a.config.MaxPhotoBytes {
		return nil, errors.NewValidationError("Foto muito grande",
			fmt.Sprintf("photo: %d bytes, limit %d", len(s), a.config.MaxPhotoBytes))
	}

	switch {
	case strings.HasPrefix(s, "data:image/"),
		strings.HasPrefix(s, "https://"),
		strings.HasPrefix(s, "http://"):
		return &s, nil
	default:
		return nil, errors.NewValidationError("Foto inválida", "photo must be an image data URL or http(s) URL")
	}
}

// checkStatus compares the supplied verdict with the server-side one. The
// supplied status wins; a mismatch is only reported.
func (a *Assembler) checkStatus(passportID string, in Input) {
	result := criteria.Evaluate(in.Criteria)
	metrics.EvaluationsTotal.WithLabelValues(metrics.BoolLabel(result.Approved)).Inc()

	if result.Matches(in.Status) {
		return
	}

	metrics.StatusMismatchTotal.Inc()
	a.logger.Warn("submitted status differs from evaluation", map[string]interface{}{
		"passportId":         passportID,
		"submittedApproved":  in.Status.Approved,
		"evaluatedApproved":  result.Approved,
		"submittedQuestions": in.Status.QuestionsCorrect,
		"evaluatedQuestions": result.QuestionsCompleted,
		"submittedExercises": in.Status.ExercisesCorrect,
		"evaluatedExercises": result.ExercisesCompleted,
	})
}

// InputFromSubmission decodes a POST body into an Input. Dates are accepted
// as RFC 3339 timestamps or bare YYYY-MM-DD.
func InputFromSubmission(sub *models.Submission) (Input, error) {
	date, err := ParseDate(sub.Date)
	if err != nil {
		return Input{}, err
	}

	set, err := criteria.FromLabels(sub.Criteria)
	if err != nil {
		return Input{}, err
	}

	post, err := criteria.PostFromLabels(sub.PostRecruitment)
	if err != nil {
		return Input{}, err
	}

	accepted := false
	if sub.AcceptedTransferRules != nil {
		accepted = *sub.AcceptedTransferRules
	}

	return Input{
		Candidate: CandidateInfo{
			Name:                   sub.CandidateName,
			PassportID:             sub.PassportID,
			RecruiterName:          sub.RecruiterName,
			AssistantRecruiterName: sub.AssistantRecruiterName,
			Photo:                  sub.Photo,
			Date:                   date,
		},
		Criteria:              set,
		PostRecruitment:       post,
		Status:                sub.Status.Resolve(),
		AcceptedTransferRules: accepted,
	}, nil
}

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.NewValidationError("Campos obrigatórios faltando", "date")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, errors.NewValidationError("Data inválida", fmt.Sprintf("date: %q", s))
}

// Package certificate turns a stored record into the printable "ficha".
package certificate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"taf-intake/internal/intake/criteria"
	"taf-intake/internal/models"
)

type Options struct {
	Department string
	// LegacyFiveScale shows question and exercise fractions over 5, as the
	// certificates printed before the 6/4 split did.
	LegacyFiveScale bool
	// Now stamps the "generated at" footer. Defaults to time.Now.
	Now func() time.Time
}

// Fraction is a score displayed as N/D.
type Fraction struct {
	Completed int
	Of        int
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Completed, f.Of)
}

// View is everything the certificate shows. Approved is copied from the
// stored status, never recomputed.
type View struct {
	Department      string
	CandidateName   string
	PassportID      string
	RecruiterName   string
	AssistantName   string // empty when absent
	Photo           string
	Date            time.Time
	Questions       Fraction
	Exercises       Fraction
	Total           Fraction
	Approved        bool
	Criteria        models.LabeledChecks
	PostRecruitment models.LabeledChecks
	GeneratedAt     time.Time
}

// NewView builds the certificate view. Labeled entries keep the order they
// were stored in, which is the catalog order for anything the assembler built.
func NewView(rec *models.CandidateRecord, opts Options) View {
	questionsOf := criteria.GroupSize(criteria.QuestionGroup)
	exercisesOf := criteria.GroupSize(criteria.ExerciseGroup)
	if opts.LegacyFiveScale {
		questionsOf, exercisesOf = 5, 5
	}

	totalOf := rec.Status.TotalCriteria
	if totalOf == 0 {
		totalOf = criteria.TotalCriteria
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	v := View{
		Department:      opts.Department,
		CandidateName:   rec.CandidateName,
		PassportID:      rec.PassportID,
		RecruiterName:   rec.RecruiterName,
		Date:            rec.Date,
		Questions:       Fraction{rec.Status.QuestionsCorrect, questionsOf},
		Exercises:       Fraction{rec.Status.ExercisesCorrect, exercisesOf},
		Total:           Fraction{rec.Status.TotalCorrect, totalOf},
		Approved:        rec.Status.Approved,
		Criteria:        rec.Criteria,
		PostRecruitment: rec.PostRecruitment,
		GeneratedAt:     now(),
	}
	if rec.AssistantRecruiterName != nil {
		v.AssistantName = *rec.AssistantRecruiterName
	}
	if rec.Photo != nil {
		v.Photo = *rec.Photo
	}
	return v
}

// Verdict is the headline shown on the certificate.
func (v View) Verdict() string {
	if v.Approved {
		return "APROVADO"
	}
	return "REPROVADO"
}

var whitespace = regexp.MustCompile(`\s+`)

// Filename is ficha_<name lowercased, whitespace runs as _>_<passport>.html.
func Filename(rec *models.CandidateRecord) string {
	name := whitespace.ReplaceAllString(strings.ToLower(rec.CandidateName), "_")
	return fmt.Sprintf("ficha_%s_%s.html", name, rec.PassportID)
}

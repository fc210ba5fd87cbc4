// Package listing filters stored records for the list views.
package listing

import (
	"fmt"
	"strings"

	"taf-intake/internal/common/errors"
	"taf-intake/internal/models"
)

type Approval string

const (
	All      Approval = "all"
	Approved Approval = "approved"
	Rejected Approval = "rejected"
)

// ParseApproval accepts "", all, approved, rejected and the Portuguese
// aprovados/reprovados used by the list pages.
func ParseApproval(s string) (Approval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return All, nil
	case "approved", "aprovados":
		return Approved, nil
	case "rejected", "reprovados":
		return Rejected, nil
	default:
		return "", errors.NewValidationError("Filtro de status inválido", fmt.Sprintf("status: %q", s))
	}
}

type Query struct {
	Approval Approval
	Search   string
}

// Filter keeps records matching q. Input order is preserved.
func Filter(records []models.CandidateRecord, q Query) []models.CandidateRecord {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]models.CandidateRecord, 0, len(records))
	for _, rec := range records {
		switch q.Approval {
		case Approved:
			if !rec.Status.Approved {
				continue
			}
		case Rejected:
			if rec.Status.Approved {
				continue
			}
		}
		if needle != "" && !matches(&rec, needle) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matches(rec *models.CandidateRecord, needle string) bool {
	fields := []string{rec.CandidateName, rec.PassportID, rec.RecruiterName}
	if rec.AssistantRecruiterName != nil {
		fields = append(fields, *rec.AssistantRecruiterName)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Summary counts records by verdict.
type Summary struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

func Summarize(records []models.CandidateRecord) Summary {
	s := Summary{Total: len(records)}
	for _, rec := range records {
		if rec.Status.Approved {
			s.Approved++
		} else {
			s.Rejected++
		}
	}
	return s
}

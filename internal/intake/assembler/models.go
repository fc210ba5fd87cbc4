// internal/intake/assembler/models.go
package assembler

import (
	"time"

	"taf-intake/internal/intake/criteria"
	"taf-intake/internal/models"
)

// CandidateInfo is the identity part of a submission.
type CandidateInfo struct {
	Name                   string
	PassportID             string
	RecruiterName          string
	AssistantRecruiterName string
	Photo                  string
	Date                   time.Time
}

// Input is everything Assemble needs. Status is the client-computed verdict
// and is stored as given.
type Input struct {
	Candidate             CandidateInfo
	Criteria              criteria.Set
	PostRecruitment       criteria.PostRecruitment
	Status                models.Status
	AcceptedTransferRules bool
}

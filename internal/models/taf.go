// internal/models/taf.go
package models

import "time"

// CandidateRecord is one persisted TAF. It is created once and never updated.
type CandidateRecord struct {
	ID                     string        `json:"id"`
	CandidateName          string        `json:"candidateName"`
	PassportID             string        `json:"passportId"`
	RecruiterName          string        `json:"recruiterName"`
	AssistantRecruiterName *string       `json:"assistantRecruiterName,omitempty"`
	Photo                  *string       `json:"photo,omitempty"`
	Date                   time.Time     `json:"date"`
	Criteria               LabeledChecks `json:"criteria"`
	PostRecruitment        LabeledChecks `json:"postRecruitment"`
	Status                 Status        `json:"status"`
	AcceptedTransferRules  bool          `json:"acceptedTransferRules"`
	CreatedAt              time.Time     `json:"createdAt"`
}

// Status is the approval snapshot stored with the record and echoed on read.
type Status struct {
	QuestionsCorrect int  `json:"questionsCorrect"`
	ExercisesCorrect int  `json:"exercisesCorrect"`
	TotalCorrect     int  `json:"totalCorrect"`
	TotalCriteria    int  `json:"totalCriteria"`
	Approved         bool `json:"approved"`
}

// AssistantName returns the assistant recruiter or "N/A".
func (r *CandidateRecord) AssistantName() string {
	if r.AssistantRecruiterName == nil {
		return "N/A"
	}
	return *r.AssistantRecruiterName
}

// Submission is the POST /api/tafs body.
type Submission struct {
	CandidateName          string           `json:"candidateName"`
	PassportID             string           `json:"passportId"`
	RecruiterName          string           `json:"recruiterName"`
	AssistantRecruiterName string           `json:"assistantRecruiterName,omitempty"`
	Date                   string           `json:"date"`
	Photo                  string           `json:"photo,omitempty"`
	Criteria               LabeledChecks    `json:"criteria"`
	PostRecruitment        LabeledChecks    `json:"postRecruitment,omitempty"`
	Status                 SubmissionStatus `json:"status"`
	AcceptedTransferRules  *bool            `json:"acceptedTransferRules,omitempty"`
}

// SubmissionStatus mirrors Status with TotalCorrect optional.
type SubmissionStatus struct {
	QuestionsCorrect int  `json:"questionsCorrect"`
	ExercisesCorrect int  `json:"exercisesCorrect"`
	TotalCorrect     *int `json:"totalCorrect,omitempty"`
	TotalCriteria    int  `json:"totalCriteria"`
	Approved         bool `json:"approved"`
}

// Resolve fills TotalCorrect from the two group counts when absent.
func (s SubmissionStatus) Resolve() Status {
	total := s.QuestionsCorrect + s.ExercisesCorrect
	if s.TotalCorrect != nil {
		total = *s.TotalCorrect
	}
	return Status{
		QuestionsCorrect: s.QuestionsCorrect,
		ExercisesCorrect: s.ExercisesCorrect,
		TotalCorrect:     total,
		TotalCriteria:    s.TotalCriteria,
		Approved:         s.Approved,
	}
}

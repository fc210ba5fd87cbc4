package api

import "taf-intake/internal/common/validation"

// submissionSchema guards POST /api/tafs before anything is decoded.
var submissionSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["candidateName", "passportId", "recruiterName", "date", "criteria", "status"],
	"properties": {
		"candidateName": {"type": "string", "minLength": 1, "maxLength": 120},
		"passportId": {"type": "string", "minLength": 1, "maxLength": 64},
		"recruiterName": {"type": "string", "minLength": 1, "maxLength": 120},
		"assistantRecruiterName": {"type": ["string", "null"], "maxLength": 120},
		"date": {"type": "string", "minLength": 1},
		"photo": {"type": ["string", "null"]},
		"criteria": {
			"type": "object",
			"additionalProperties": {"type": "boolean"}
		},
		"postRecruitment": {
			"type": "object",
			"additionalProperties": {"type": "boolean"}
		},
		"status": {
			"type": "object",
			"required": ["questionsCorrect", "exercisesCorrect", "totalCriteria"],
			"properties": {
				"questionsCorrect": {"type": "integer", "minimum": 0},
				"exercisesCorrect": {"type": "integer", "minimum": 0},
				"totalCorrect": {"type": "integer", "minimum": 0},
				"totalCriteria": {"type": "integer", "minimum": 1},
				"approved": {"type": "boolean"}
			}
		},
		"acceptedTransferRules": {"type": "boolean"}
	}
}`)

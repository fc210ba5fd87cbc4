package criteria

import (
	"fmt"

	"taf-intake/internal/common/errors"
	"taf-intake/internal/models"
)

// PostKey identifies one post-recruitment task.
type PostKey string

const (
	PostEmail     PostKey = "email"
	PostRoles     PostKey = "cargos"
	PostUniform   PostKey = "fardamento"
	PostBriefings PostKey = "informes"
	PostRules     PostKey = "regras"
)

type PostItem struct {
	Key   PostKey
	Label string
}

// PostCatalog lists the follow-up tasks. They are display only and never scored.
var PostCatalog = []PostItem{
	{PostEmail, "Setar no email corretamente"},
	{PostRoles, "Setar os cargos dos cursos pos recrutamento"},
	{PostUniform, "Instruir no fardamento correto"},
	{PostBriefings, "Passar ultimos informes importantes"},
	{PostRules, "Informar regras da cidade e da policia"},
}

type PostRecruitment map[PostKey]bool

// Labeled attaches labels in declaration order.
func (p PostRecruitment) Labeled() models.LabeledChecks {
	out := make(models.LabeledChecks, 0, len(PostCatalog))
	for _, item := range PostCatalog {
		out = append(out, models.Check{Label: item.Label, Value: p[item.Key]})
	}
	return out
}

// PostFromLabels is FromLabels for the post-recruitment checklist.
func PostFromLabels(lc models.LabeledChecks) (PostRecruitment, error) {
	byLabel := make(map[string]PostKey, len(PostCatalog))
	for _, item := range PostCatalog {
		byLabel[item.Label] = item.Key
	}

	p := make(PostRecruitment, len(PostCatalog))
	for _, check := range lc {
		key, ok := byLabel[check.Label]
		if !ok {
			return nil, errors.NewValidationError("Item pós-recrutamento desconhecido", fmt.Sprintf("label: %q", check.Label))
		}
		p[key] = check.Value
	}
	return p, nil
}

// Package criteria holds the fixed intake criteria table and the approval rule.
package criteria

import (
	"fmt"

	"taf-intake/internal/common/errors"
	"taf-intake/internal/models"
)

// Key identifies one criterion independently of its display label.
type Key string

const (
	ModulationQuestions Key = "modulacaoPerguntas"
	ModulationExercise  Key = "modulacaoExercicio"
	ApproachQuestions   Key = "abordagemPerguntas"
	ApproachExercise    Key = "abordagemExercicio"
	FollowUpQuestions   Key = "acompanhamentoPerguntas"
	FollowUpExercise    Key = "acompanhamentoExercicio"
	CodeQQuestions      Key = "codigoQPerguntas"
	CodeQExercise       Key = "codigoQExercicio"
	MirandaRights       Key = "leiMiranda"
	Corruption          Key = "prevaricacao"
)

// Group is the scoring partition a criterion belongs to.
type Group int

const (
	QuestionGroup Group = iota + 1
	ExerciseGroup
)

func (g Group) String() string {
	switch g {
	case QuestionGroup:
		return "question"
	case ExerciseGroup:
		return "exercise"
	default:
		return "unknown"
	}
}

type Criterion struct {
	Key   Key
	Label string
	Group Group
}

// Catalog is the only source of criterion labels. Slice order is the
// declaration order used for storage and the certificate.
var Catalog = []Criterion{
	{ModulationQuestions, "Perguntas sobre Modulacao (minimo 6)", QuestionGroup},
	{ModulationExercise, "Exercicio de modulacao", ExerciseGroup},
	{ApproachQuestions, "Perguntas sobre Abordagem (minimo 6)", QuestionGroup},
	{ApproachExercise, "Exercicio de abordagem", ExerciseGroup},
	{FollowUpQuestions, "Perguntas sobre Acompanhamento (minimo 6)", QuestionGroup},
	{FollowUpExercise, "Exercicio de Acompanhamento", ExerciseGroup},
	{CodeQQuestions, "Perguntas sobre Codigo Q (minimo 6)", QuestionGroup},
	{CodeQExercise, "Exercicio de modulacao eficiente com Codigo Q", ExerciseGroup},
	{MirandaRights, "Lei de Miranda", QuestionGroup},
	{Corruption, "Prevaricacao e Corrupcao", QuestionGroup},
}

// TotalCriteria is the size of the catalog.
var TotalCriteria = len(Catalog)

// GroupSize counts catalog entries in g.
func GroupSize(g Group) int {
	n := 0
	for _, c := range Catalog {
		if c.Group == g {
			n++
		}
	}
	return n
}

// Lookup finds a criterion by key.
func Lookup(key Key) (Criterion, bool) {
	for _, c := range Catalog {
		if c.Key == key {
			return c, true
		}
	}
	return Criterion{}, false
}

// Set holds the ten raw checks. Absent keys count as false.
type Set map[Key]bool

// AllTrue returns a Set with every criterion passed.
func AllTrue() Set {
	s := make(Set, len(Catalog))
	for _, c := range Catalog {
		s[c.Key] = true
	}
	return s
}

// Labeled attaches catalog labels in declaration order.
func (s Set) Labeled() models.LabeledChecks {
	out := make(models.LabeledChecks, 0, len(Catalog))
	for _, c := range Catalog {
		out = append(out, models.Check{Label: c.Label, Value: s[c.Key]})
	}
	return out
}

// Validate rejects keys that are not in the catalog.
func (s Set) Validate() error {
	for k := range s {
		if _, ok := Lookup(k); !ok {
			return errors.NewValidationError("Critério desconhecido", fmt.Sprintf("key: %s", k))
		}
	}
	return nil
}

// FromLabels maps a labeled document back onto keys. Labels missing from
// the document are false; labels missing from the catalog are rejected.
func FromLabels(lc models.LabeledChecks) (Set, error) {
	byLabel := make(map[string]Key, len(Catalog))
	for _, c := range Catalog {
		byLabel[c.Label] = c.Key
	}

	s := make(Set, len(Catalog))
	for _, check := range lc {
		key, ok := byLabel[check.Label]
		if !ok {
			return nil, errors.NewValidationError("Critério desconhecido", fmt.Sprintf("label: %q", check.Label))
		}
		s[key] = check.Value
	}
	return s, nil
}

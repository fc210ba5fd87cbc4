package criteria

import (
	"testing"

	"taf-intake/internal/common/errors"
	"taf-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Helpers
// ==========================

func setOf(keys ...Key) Set {
	s := Set{}
	for _, k := range keys {
		s[k] = true
	}
	return s
}

var questionKeys = []Key{ModulationQuestions, ApproachQuestions, FollowUpQuestions, CodeQQuestions, MirandaRights, Corruption}
var exerciseKeys = []Key{ModulationExercise, ApproachExercise, FollowUpExercise, CodeQExercise}

// ==========================
// Catalog
// ==========================

func TestCatalog_Partition(t *testing.T) {
	assert.Equal(t, 10, TotalCriteria)
	assert.Equal(t, 6, GroupSize(QuestionGroup))
	assert.Equal(t, 4, GroupSize(ExerciseGroup))

	for _, k := range questionKeys {
		c, ok := Lookup(k)
		require.True(t, ok)
		assert.Equal(t, QuestionGroup, c.Group, k)
	}
	for _, k := range exerciseKeys {
		c, ok := Lookup(k)
		require.True(t, ok)
		assert.Equal(t, ExerciseGroup, c.Group, k)
	}
}

func TestSet_LabeledOrder(t *testing.T) {
	labels := Set{}.Labeled().Labels()
	assert.Equal(t, []string{
		"Perguntas sobre Modulacao (minimo 6)",
		"Exercicio de modulacao",
		"Perguntas sobre Abordagem (minimo 6)",
		"Exercicio de abordagem",
		"Perguntas sobre Acompanhamento (minimo 6)",
		"Exercicio de Acompanhamento",
		"Perguntas sobre Codigo Q (minimo 6)",
		"Exercicio de modulacao eficiente com Codigo Q",
		"Lei de Miranda",
		"Prevaricacao e Corrupcao",
	}, labels)
}

func TestFromLabels_RoundTrip(t *testing.T) {
	in := setOf(ModulationQuestions, CodeQExercise, Corruption)

	back, err := FromLabels(in.Labeled())
	require.NoError(t, err)
	assert.Equal(t, Evaluate(in), Evaluate(back))
	assert.True(t, back[CodeQExercise])
	assert.False(t, back[ApproachExercise])
}

func TestFromLabels_UnknownLabel(t *testing.T) {
	_, err := FromLabels(models.LabeledChecks{{Label: "Tiro ao alvo", Value: true}})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

func TestSet_Validate(t *testing.T) {
	assert.NoError(t, AllTrue().Validate())
	assert.Error(t, Set{"tiro": true}.Validate())
}

func TestPostRecruitment_Labels(t *testing.T) {
	p := PostRecruitment{PostUniform: true}
	lc := p.Labeled()
	require.Len(t, lc, 5)
	assert.Equal(t, "Setar no email corretamente", lc[0].Label)
	v, _ := lc.Get("Instruir no fardamento correto")
	assert.True(t, v)

	back, err := PostFromLabels(lc)
	require.NoError(t, err)
	assert.Equal(t, p[PostUniform], back[PostUniform])

	_, err = PostFromLabels(models.LabeledChecks{{Label: "x"}})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

// ==========================
// Evaluate
// ==========================

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		set  Set
		want Result
	}{
		{
			name: "all false",
			set:  Set{},
			want: Result{Approved: false},
		},
		{
			name: "all true",
			set:  AllTrue(),
			want: Result{Approved: true, QuestionsCompleted: 6, ExercisesCompleted: 4, TotalCompleted: 10},
		},
		{
			name: "exact boundary 3 + 2",
			set:  setOf(ModulationQuestions, ApproachQuestions, MirandaRights, ModulationExercise, CodeQExercise),
			want: Result{Approved: true, QuestionsCompleted: 3, ExercisesCompleted: 2, TotalCompleted: 5},
		},
		{
			name: "2 questions + 4 exercises fails question minimum",
			set:  setOf(append([]Key{MirandaRights, Corruption}, exerciseKeys...)...),
			want: Result{Approved: false, QuestionsCompleted: 2, ExercisesCompleted: 4, TotalCompleted: 6},
		},
		{
			name: "6 questions + 1 exercise fails exercise minimum",
			set:  setOf(append(append([]Key{}, questionKeys...), ApproachExercise)...),
			want: Result{Approved: false, QuestionsCompleted: 6, ExercisesCompleted: 1, TotalCompleted: 7},
		},
		{
			name: "explicit false values are not counted",
			set:  Set{ModulationQuestions: false, ModulationExercise: true},
			want: Result{Approved: false, QuestionsCompleted: 0, ExercisesCompleted: 1, TotalCompleted: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.set)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Evaluate(tt.set), "evaluate must be deterministic")
		})
	}
}

// Every one of the 1024 combinations must satisfy the invariants.
func TestEvaluate_Exhaustive(t *testing.T) {
	for mask := 0; mask < 1<<len(Catalog); mask++ {
		s := Set{}
		for i, c := range Catalog {
			if mask&(1<<i) != 0 {
				s[c.Key] = true
			}
		}

		r := Evaluate(s)
		assert.Equal(t, r.QuestionsCompleted+r.ExercisesCompleted, r.TotalCompleted)
		assert.LessOrEqual(t, r.QuestionsCompleted, 6)
		assert.LessOrEqual(t, r.ExercisesCompleted, 4)

		want := r.QuestionsCompleted >= 3 && r.ExercisesCompleted >= 2 && r.TotalCompleted >= 5
		assert.Equal(t, want, r.Approved, "mask %b", mask)
	}
}

func TestResult_Status(t *testing.T) {
	r := Evaluate(AllTrue())
	st := r.Status()
	assert.Equal(t, models.Status{QuestionsCorrect: 6, ExercisesCorrect: 4, TotalCorrect: 10, TotalCriteria: 10, Approved: true}, st)
	assert.True(t, r.Matches(st))

	st.Approved = false
	assert.False(t, r.Matches(st))
}

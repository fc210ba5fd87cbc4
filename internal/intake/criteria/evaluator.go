package criteria

import "taf-intake/internal/models"

// Approval thresholds. All three must hold.
const (
	MinQuestions = 3
	MinExercises = 2
	MinTotal     = 5
)

// Result is the derived verdict for one Set.
type Result struct {
	Approved           bool `json:"approved"`
	QuestionsCompleted int  `json:"questionsCompleted"`
	ExercisesCompleted int  `json:"exercisesCompleted"`
	TotalCompleted     int  `json:"totalCompleted"`
}

// Evaluate counts passed checks per group and applies the approval rule.
func Evaluate(s Set) Result {
	var questions, exercises int
	for _, c := range Catalog {
		if !s[c.Key] {
			continue
		}
		switch c.Group {
		case QuestionGroup:
			questions++
		case ExerciseGroup:
			exercises++
		}
	}

	total := questions + exercises
	return Result{
		Approved:           questions >= MinQuestions && exercises >= MinExercises && total >= MinTotal,
		QuestionsCompleted: questions,
		ExercisesCompleted: exercises,
		TotalCompleted:     total,
	}
}

// Status is the persisted form of r.
func (r Result) Status() models.Status {
	return models.Status{
		QuestionsCorrect: r.QuestionsCompleted,
		ExercisesCorrect: r.ExercisesCompleted,
		TotalCorrect:     r.TotalCompleted,
		TotalCriteria:    TotalCriteria,
		Approved:         r.Approved,
	}
}

// Matches reports whether a stored status agrees with r.
func (r Result) Matches(st models.Status) bool {
	return r.Status() == st
}

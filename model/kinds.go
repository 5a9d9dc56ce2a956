package model

import "strconv"

// QuestionKind is the closed set of supported question types.
// The numeric values are wire and database values: do not reorder.
type QuestionKind int

const (
	KindText QuestionKind = iota + 1
	KindTrueFalse
	KindRating
	KindMultipleChoice
	KindSelectAll
)

func (k QuestionKind) Known() bool {
	return k >= KindText && k <= KindSelectAll
}

func (k QuestionKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTrueFalse:
		return "true_false"
	case KindRating:
		return "rating"
	case KindMultipleChoice:
		return "multiple_choice"
	case KindSelectAll:
		return "select_all"
	}
	return "question_kind(" + strconv.Itoa(int(k)) + ")"
}

// AnswerKind is the one-to-one companion of QuestionKind.
type AnswerKind int

const (
	AnswerText AnswerKind = iota + 1
	AnswerTrueFalse
	AnswerRating
	AnswerMultipleChoice
	AnswerSelectAll
)

func (k AnswerKind) Known() bool {
	return k >= AnswerText && k <= AnswerSelectAll
}

func (k AnswerKind) String() string {
	switch k {
	case AnswerText:
		return "text"
	case AnswerTrueFalse:
		return "true_false"
	case AnswerRating:
		return "rating"
	case AnswerMultipleChoice:
		return "multiple_choice"
	case AnswerSelectAll:
		return "select_all"
	}
	return "answer_kind(" + strconv.Itoa(int(k)) + ")"
}

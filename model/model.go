package model

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// ErrMissingDiscriminator is returned when an inbound Question or Answer
// payload carries no questionType/answerType field. A payload without a
// discriminator is rejected outright, never defaulted to text.
var ErrMissingDiscriminator = errors.New("missing kind discriminator")

type Survey struct {
	ID          int             `json:"id,omitempty"`
	Version     int             `json:"version,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Groups      []QuestionGroup `json:"groups"`
	Questions   []Question      `json:"questions"`
}

// EntryGroup is the group a respondent starts on: the one with the lowest
// group number.
func (s *Survey) EntryGroup() (*QuestionGroup, error) {
	var entry *QuestionGroup
	for i := range s.Groups {
		g := &s.Groups[i]
		if entry == nil || g.Number < entry.Number {
			entry = g
		}
	}
	if entry == nil {
		return nil, errors.Errorf("survey %d has no groups", s.ID)
	}
	return entry, nil
}

func (s *Survey) GroupByID(id int) (*QuestionGroup, bool) {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			return &s.Groups[i], true
		}
	}
	return nil, false
}

// QuestionsInGroup returns the group's questions ordered by question number.
func (s *Survey) QuestionsInGroup(groupID int) []*Question {
	var questions []*Question
	for i := range s.Questions {
		if s.Questions[i].GroupID == groupID {
			questions = append(questions, &s.Questions[i])
		}
	}
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Number < questions[j].Number
	})
	return questions
}

type QuestionGroup struct {
	ID          int    `json:"id,omitempty"`
	SurveyID    int    `json:"surveyId,omitempty"`
	Number      int    `json:"number"`
	Name        string `json:"name"`
	NextGroupID *int   `json:"nextGroupId,omitempty"`
	SubmitAfter bool   `json:"submitAfterGroup"`
}

type Question struct {
	ID       int          `json:"id,omitempty"`
	SurveyID int          `json:"surveyId,omitempty"`
	GroupID  int          `json:"groupId,omitempty"`
	Kind     QuestionKind `json:"questionType"`
	Text     string       `json:"text"`
	Number   int          `json:"number"`
	Required bool         `json:"required"`

	// kind-specific payload
	MaxLength int            `json:"maxLength,omitempty"` // KindText
	Options   []ChoiceOption `json:"options,omitempty"`   // KindMultipleChoice, KindSelectAll
}

// UnmarshalJSON rejects payloads without an explicit questionType
// discriminator before any field binding takes place.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	aux := struct {
		Kind *QuestionKind `json:"questionType"`
		*plain
	}{plain: (*plain)(q)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Kind == nil {
		return errors.Wrap(ErrMissingDiscriminator, "question")
	}
	if !aux.Kind.Known() {
		return errors.Errorf("question: unknown questionType %d", *aux.Kind)
	}
	q.Kind = *aux.Kind
	return nil
}

// SortedOptions returns a copy of the option list ordered by display order.
func (q *Question) SortedOptions() []ChoiceOption {
	options := make([]ChoiceOption, len(q.Options))
	copy(options, q.Options)
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Order < options[j].Order
	})
	return options
}

func (q *Question) OptionByID(id int) (*ChoiceOption, bool) {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i], true
		}
	}
	return nil, false
}

type ChoiceOption struct {
	ID         int    `json:"id,omitempty"`
	QuestionID int    `json:"questionId,omitempty"`
	Text       string `json:"text"`
	Order      int    `json:"order"`

	// BranchToGroupID overrides the group's default successor when this
	// option is selected.
	BranchToGroupID *int `json:"branchToGroupId,omitempty"`
}

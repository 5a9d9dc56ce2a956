package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Answer struct {
	ID         int        `json:"id,omitempty"`
	QuestionID int        `json:"questionId"`
	Kind       AnswerKind `json:"answerType"`
	Respondent string     `json:"-"`
	IP         string     `json:"-"`
	Complete   bool       `json:"complete"`

	// kind-specific payload
	Text             string `json:"text,omitempty"`             // AnswerText
	Flag             bool   `json:"flag"`                       // AnswerTrueFalse
	Rating           int    `json:"rating,omitempty"`           // AnswerRating
	SelectedOptionID int    `json:"selectedOptionId,omitempty"` // AnswerMultipleChoice
	SelectedOptions  string `json:"selectedOptions,omitempty"`  // AnswerSelectAll, comma-joined option ids

	// Selections is the per-option view of SelectedOptions, one slot per
	// question option. Populated for presentation, never persisted.
	Selections []OptionSelection `json:"selections,omitempty"`
}

type OptionSelection struct {
	OptionID int    `json:"optionId"`
	Text     string `json:"text,omitempty"`
	Selected bool   `json:"selected"`
}

// UnmarshalJSON rejects payloads without an explicit answerType
// discriminator before any field binding takes place.
func (a *Answer) UnmarshalJSON(data []byte) error {
	type plain Answer
	aux := struct {
		Kind *AnswerKind `json:"answerType"`
		*plain
	}{plain: (*plain)(a)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Kind == nil {
		return errors.Wrap(ErrMissingDiscriminator, "answer")
	}
	if !aux.Kind.Known() {
		return errors.Errorf("answer: unknown answerType %d", *aux.Kind)
	}
	a.Kind = *aux.Kind
	return nil
}

// SelectedIDs decodes the comma-joined select-all payload.
func (a *Answer) SelectedIDs() ([]int, error) {
	return SplitOptionIDs(a.SelectedOptions)
}

// SyncSelections rebuilds the comma-joined payload from the Selections
// slots, preserving slot order.
func (a *Answer) SyncSelections() {
	var ids []int
	for _, sel := range a.Selections {
		if sel.Selected {
			ids = append(ids, sel.OptionID)
		}
	}
	a.SelectedOptions = JoinOptionIDs(ids)
}

// JoinOptionIDs serializes selected option ids the way existing data stores
// them: a single comma-joined string, e.g. "4,6".
func JoinOptionIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// SplitOptionIDs parses a comma-joined option id string. Blank input yields
// an empty selection; a non-numeric element is an error.
func SplitOptionIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Errorf("bad option id %q in selection %q", part, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

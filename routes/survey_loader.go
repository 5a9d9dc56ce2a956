package routes

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/branchsurvey/server/model"
	"github.com/gofrs/uuid"
)

// loadSurvey reads the full survey aggregate: groups, questions, options.
// Returns nil when the survey does not exist.
func loadSurvey(ctx context.Context, db *sql.DB, surveyId int) (*model.Survey, error) {
	survey := model.Survey{}
	err := db.QueryRowContext(ctx, `
		SELECT id, version, title, description
		FROM survey
		WHERE id = ?`,
		surveyId,
	).Scan(&survey.ID, &survey.Version, &survey.Title, &survey.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, number, name, next_group_id, submit_after
		FROM question_group
		WHERE survey_id = ?
		ORDER BY number`,
		surveyId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		g := model.QuestionGroup{SurveyID: surveyId}
		var next sql.NullInt64
		err = rows.Scan(&g.ID, &g.Number, &g.Name, &next, &g.SubmitAfter)
		if err != nil {
			return nil, err
		}
		if next.Valid {
			n := int(next.Int64)
			g.NextGroupID = &n
		}
		survey.Groups = append(survey.Groups, g)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	questionRows, err := db.QueryContext(ctx, `
		SELECT id, group_id, kind, text, number, required, max_length
		FROM question
		WHERE survey_id = ?
		ORDER BY group_id, number`,
		surveyId,
	)
	if err != nil {
		return nil, err
	}
	defer questionRows.Close()

	byQuestion := map[int]int{} // question id -> index
	for questionRows.Next() {
		q := model.Question{SurveyID: surveyId}
		err = questionRows.Scan(&q.ID, &q.GroupID, &q.Kind, &q.Text, &q.Number, &q.Required, &q.MaxLength)
		if err != nil {
			return nil, err
		}
		byQuestion[q.ID] = len(survey.Questions)
		survey.Questions = append(survey.Questions, q)
	}
	if err = questionRows.Err(); err != nil {
		return nil, err
	}

	optionRows, err := db.QueryContext(ctx, `
		SELECT o.id, o.question_id, o.text, o.ord, o.branch_to_group_id
		FROM choice_option o
		INNER JOIN question q ON (q.id = o.question_id)
		WHERE q.survey_id = ?
		ORDER BY o.question_id, o.ord`,
		surveyId,
	)
	if err != nil {
		return nil, err
	}
	defer optionRows.Close()

	for optionRows.Next() {
		opt := model.ChoiceOption{}
		var branch sql.NullInt64
		err = optionRows.Scan(&opt.ID, &opt.QuestionID, &opt.Text, &opt.Order, &branch)
		if err != nil {
			return nil, err
		}
		if branch.Valid {
			b := int(branch.Int64)
			opt.BranchToGroupID = &b
		}
		if i, ok := byQuestion[opt.QuestionID]; ok {
			survey.Questions[i].Options = append(survey.Questions[i].Options, opt)
		}
	}
	if err = optionRows.Err(); err != nil {
		return nil, err
	}

	return &survey, nil
}

// loadAnswers reads one respondent's answers for a survey, keyed by
// question id.
func loadAnswers(ctx context.Context, db *sql.DB, surveyId int, respondent string) (map[int]*model.Answer, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT a.id, a.question_id, a.kind, a.ip, a.complete,
			a.text, a.flag, a.rating, a.selected_option_id, a.selected_options
		FROM answer a
		INNER JOIN question q ON (q.id = a.question_id)
		WHERE q.survey_id = ?
			AND a.respondent = ?`,
		surveyId,
		respondent,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := map[int]*model.Answer{}
	for rows.Next() {
		a := model.Answer{Respondent: respondent}
		err = rows.Scan(&a.ID, &a.QuestionID, &a.Kind, &a.IP, &a.Complete,
			&a.Text, &a.Flag, &a.Rating, &a.SelectedOptionID, &a.SelectedOptions)
		if err != nil {
			return nil, err
		}
		answers[a.QuestionID] = &a
	}
	return answers, rows.Err()
}

// respondentToken identifies the survey-taking browser. First contact gets
// a fresh uuid in a long-lived cookie.
func respondentToken(w http.ResponseWriter, r *http.Request) (string, error) {
	cookie, err := r.Cookie("respondent")
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if err != nil && !errors.Is(err, http.ErrNoCookie) {
		return "", err
	}

	token, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "respondent",
		Value:    token.String(),
		MaxAge:   60 * 60 * 24 * 365,
		SameSite: http.SameSiteLaxMode,
	})
	return token.String(), nil
}

func clientIP(r *http.Request) string {
	return strings.Split(r.RemoteAddr, ":")[0]
}

package routes

import (
	"context"
	"database/sql"
	"net/http"
	"sort"
	"strconv"

	"github.com/branchsurvey/server/app"
	"github.com/branchsurvey/server/engine"
	"github.com/branchsurvey/server/httpx"
	"github.com/branchsurvey/server/log"
	"github.com/branchsurvey/server/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// CreateSurvey inserts a whole survey aggregate. Group ids in the payload
// are payload-local labels: questions and branch targets reference them,
// and they are remapped to database ids on insert.
func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey := model.Survey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := validateSurvey(app, &survey); err != nil {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"create_survey.validate", "%s", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var surveyId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO survey (title, description) VALUES (?, ?)
			RETURNING id`,
			survey.Title,
			survey.Description,
		).Scan(&surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		groupIds := map[int]int{} // payload label -> db id
		for _, g := range survey.Groups {
			var groupId int
			err = tx.QueryRowContext(r.Context(), `
				INSERT INTO question_group (survey_id, number, name, submit_after)
				VALUES (?, ?, ?, ?)
				RETURNING id`,
				surveyId,
				g.Number,
				g.Name,
				g.SubmitAfter,
			).Scan(&groupId)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_survey.groups", err)
				return
			}
			groupIds[g.ID] = groupId
		}

		// second pass: successor links may point at groups inserted later
		for _, g := range survey.Groups {
			if g.NextGroupID == nil {
				continue
			}
			_, err = tx.ExecContext(r.Context(), `
				UPDATE question_group SET next_group_id = ? WHERE id = ?`,
				groupIds[*g.NextGroupID],
				groupIds[g.ID],
			)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_survey.groups.link", err)
				return
			}
		}

		for _, q := range survey.Questions {
			var questionId int
			err = tx.QueryRowContext(r.Context(), `
				INSERT INTO question (survey_id, group_id, kind, text, number, required, max_length)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				RETURNING id`,
				surveyId,
				groupIds[q.GroupID],
				q.Kind,
				q.Text,
				q.Number,
				q.Required,
				q.MaxLength,
			).Scan(&questionId)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_survey.questions", err)
				return
			}

			for i, opt := range q.Options {
				order := opt.Order
				if order == 0 {
					order = i + 1
				}
				var branch any
				if opt.BranchToGroupID != nil {
					branch = groupIds[*opt.BranchToGroupID]
				}
				_, err = tx.ExecContext(r.Context(), `
					INSERT INTO choice_option (question_id, text, ord, branch_to_group_id)
					VALUES (?, ?, ?, ?)`,
					questionId,
					opt.Text,
					order,
					branch,
				)
				if err != nil {
					httpx.LogInternalError(w, "db.insert_survey.options", err)
					return
				}
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": surveyId,
		})
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT s.id, s.version, s.title, s.description
			FROM survey s`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}
		defer rows.Close()

		surveys := []model.Survey{}
		for rows.Next() {
			s := model.Survey{}
			err = rows.Scan(&s.ID, &s.Version, &s.Title, &s.Description)
			if err != nil {
				httpx.LogInternalError(w, "db.get_surveys.scan", err)
				return
			}

			surveys = append(surveys, s)
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey, err := loadSurvey(r.Context(), app.DB, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		if survey == nil {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}

		render.JSON(w, r, survey)
	}
}

// UpdateSurvey updates the survey row and its groups' metadata under an
// optimistic version lock. Question edits go through UpdateQuestion, which
// owns option reconciliation.
func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey := model.Survey{}
		err = render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		existing, err := loadSurvey(r.Context(), app.DB, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		if existing == nil {
			httpx.LogNotFound(w, "update_survey", surveyId)
			return
		}

		// groups keep the existing question set; validate the graph as it
		// will look after the update
		merged := *existing
		merged.Groups = survey.Groups
		for i := range merged.Groups {
			merged.Groups[i].SurveyID = surveyId
		}
		if err := engine.ValidateGraph(&merged); err != nil {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"update_survey.graph", "%s", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		for _, g := range survey.Groups {
			var next any
			if g.NextGroupID != nil {
				next = *g.NextGroupID
			}
			_, err = tx.ExecContext(r.Context(), `
				UPDATE question_group
				SET number = ?, name = ?, next_group_id = ?, submit_after = ?
				WHERE id = ?
					AND survey_id = ?`,
				g.Number,
				g.Name,
				next,
				g.SubmitAfter,
				g.ID,
				surveyId,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.update_survey.groups", err)
				return
			}
		}

		res, err := tx.ExecContext(r.Context(), `
			UPDATE survey
			SET
				title = ?,
				description = ?,
				version = version+1
			WHERE	id = ?
				AND version = ?`,
			survey.Title,
			survey.Description,
			surveyId,
			survey.Version,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}
		// optimistic lock
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_survey.verify.conflict")
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// UpdateQuestion updates one question in place and reconciles its option
// list through the kind handler: zero-id options insert, matched ids update,
// absent ids delete.
func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}
		questionId, err := strconv.Atoi(chi.URLParam(r, "questionId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.question_id")
			return
		}

		incoming := model.Question{}
		err = render.DecodeJSON(r.Body, &incoming)
		if err != nil {
			if errors.Is(err, model.ErrMissingDiscriminator) {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
					"request.parse_body.question_type", "missing questionType discriminator")
			} else {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			}
			return
		}

		survey, err := loadSurvey(r.Context(), app.DB, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		if survey == nil {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}

		var existing *model.Question
		for i := range survey.Questions {
			if survey.Questions[i].ID == questionId {
				existing = &survey.Questions[i]
				break
			}
		}
		if existing == nil {
			httpx.LogNotFound(w, "update_question", questionId)
			return
		}
		if incoming.Kind != existing.Kind {
			// changing a question's kind would orphan its answers
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel,
				"update_question.kind", "cannot change question kind from %s to %s",
				existing.Kind, incoming.Kind)
			return
		}

		handler, err := app.Resolver.ForQuestion(incoming.Kind)
		if err != nil {
			httpx.LogInternalError(w, "engine.resolve", err)
			return
		}

		incoming.ID = questionId
		incoming.SurveyID = surveyId
		if incoming.GroupID == 0 {
			incoming.GroupID = existing.GroupID
		}
		if !handler.IsValid(&incoming) {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"update_question.validate", "question %d is not a valid %s question",
				questionId, incoming.Kind)
			return
		}

		// validate the branch graph as it will look after the update
		preview := *survey
		preview.Questions = make([]model.Question, len(survey.Questions))
		copy(preview.Questions, survey.Questions)
		for i := range preview.Questions {
			if preview.Questions[i].ID == questionId {
				preview.Questions[i] = incoming
			}
		}
		if err := engine.ValidateGraph(&preview); err != nil {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"update_question.graph", "%s", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			UPDATE question
			SET group_id = ?, text = ?, number = ?, required = ?, max_length = ?
			WHERE id = ?
				AND survey_id = ?`,
			incoming.GroupID,
			incoming.Text,
			incoming.Number,
			incoming.Required,
			incoming.MaxLength,
			questionId,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question", err)
			return
		}

		if optionHandler, ok := handler.(engine.OptionHandler); ok {
			changes := optionHandler.ReconcileOptions(questionId, existing.Options, incoming.Options)
			if err = applyOptionChanges(r.Context(), tx, changes); err != nil {
				httpx.LogInternalError(w, "db.update_question.options", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func applyOptionChanges(ctx context.Context, tx *sql.Tx, changes engine.OptionChangeSet) error {
	for _, opt := range changes.Inserts {
		var branch any
		if opt.BranchToGroupID != nil {
			branch = *opt.BranchToGroupID
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO choice_option (question_id, text, ord, branch_to_group_id)
			VALUES (?, ?, ?, ?)`,
			opt.QuestionID,
			opt.Text,
			opt.Order,
			branch,
		)
		if err != nil {
			return errors.Wrap(err, "insert option")
		}
	}

	for _, opt := range changes.Updates {
		var branch any
		if opt.BranchToGroupID != nil {
			branch = *opt.BranchToGroupID
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE choice_option
			SET text = ?, ord = ?, branch_to_group_id = ?
			WHERE id = ?`,
			opt.Text,
			opt.Order,
			branch,
			opt.ID,
		)
		if err != nil {
			return errors.Wrapf(err, "update option %d", opt.ID)
		}
	}

	for _, id := range changes.Deletes {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM choice_option WHERE id = ?`,
			id,
		)
		if err != nil {
			return errors.Wrapf(err, "delete option %d", id)
		}
	}

	return nil
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		for _, stmt := range []string{
			`DELETE FROM answer WHERE question_id IN (SELECT id FROM question WHERE survey_id = ?)`,
			`DELETE FROM choice_option WHERE question_id IN (SELECT id FROM question WHERE survey_id = ?)`,
			`DELETE FROM question WHERE survey_id = ?`,
			`DELETE FROM question_group WHERE survey_id = ?`,
			`DELETE FROM response WHERE survey_id = ?`,
		} {
			_, err = tx.ExecContext(r.Context(), stmt, surveyId)
			if err != nil {
				httpx.LogInternalError(w, "db.delete_survey.cascade", err)
				return
			}
		}

		res, err := tx.ExecContext(r.Context(), `
			DELETE FROM survey WHERE id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// GetSurveyAnswers renders the collected answers as one row per respondent,
// each cell formatted by the kind handler's display value.
func GetSurveyAnswers(app app.App) http.HandlerFunc {
	type answerRow struct {
		Respondent string         `json:"respondent"`
		IP         string         `json:"ip"`
		Complete   bool           `json:"complete"`
		Values     map[int]string `json:"values"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT a.respondent, a.ip, a.question_id, a.kind, a.complete,
				a.text, a.flag, a.rating, a.selected_option_id, a.selected_options
			FROM answer a
			INNER JOIN question q ON (q.id = a.question_id)
			WHERE q.survey_id = ?
			ORDER BY a.respondent, q.number`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_answers", err)
			return
		}
		defer rows.Close()

		byRespondent := map[string]*answerRow{}
		var order []string
		for rows.Next() {
			a := model.Answer{}
			err = rows.Scan(&a.Respondent, &a.IP, &a.QuestionID, &a.Kind, &a.Complete,
				&a.Text, &a.Flag, &a.Rating, &a.SelectedOptionID, &a.SelectedOptions)
			if err != nil {
				httpx.LogInternalError(w, "db.get_answers.scan", err)
				return
			}

			handler, err := app.Resolver.ForAnswer(a.Kind)
			if err != nil {
				httpx.LogInternalError(w, "engine.resolve", err)
				return
			}
			value, err := handler.DisplayValue(&a)
			if err != nil {
				httpx.LogInternalError(w, "engine.display_value", err)
				return
			}

			row, ok := byRespondent[a.Respondent]
			if !ok {
				row = &answerRow{
					Respondent: a.Respondent,
					IP:         a.IP,
					Values:     map[int]string{},
				}
				byRespondent[a.Respondent] = row
				order = append(order, a.Respondent)
			}
			row.Values[a.QuestionID] = value
			row.Complete = row.Complete || a.Complete
		}
		if err = rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.get_answers.rows", err)
			return
		}

		sort.Strings(order)
		answers := make([]answerRow, 0, len(order))
		for _, respondent := range order {
			answers = append(answers, *byRespondent[respondent])
		}

		render.JSON(w, r, map[string]any{
			"answers": answers,
		})
	}
}

// CreateDemoResponse fills the survey with one synthesized, complete set of
// random answers, for previewing grids and exports.
func CreateDemoResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey, err := loadSurvey(r.Context(), app.DB, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		if survey == nil {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}

		token, err := uuid.NewV4()
		if err != nil {
			httpx.LogInternalError(w, "demo.token", err)
			return
		}
		respondent := "demo-" + token.String()

		answers, err := engine.DemoAnswers(survey, app.Resolver, app.Rand, respondent, clientIP(r))
		if err != nil {
			httpx.LogInternalError(w, "engine.demo_answers", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO answer (
				question_id, respondent, kind, ip, complete,
				text, flag, rating, selected_option_id, selected_options
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_demo.prepare", err)
			return
		}
		defer stmt.Close()

		for _, a := range answers {
			_, err = stmt.ExecContext(r.Context(),
				a.QuestionID,
				a.Respondent,
				a.Kind,
				a.IP,
				a.Complete,
				a.Text,
				a.Flag,
				a.Rating,
				a.SelectedOptionID,
				a.SelectedOptions,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_demo", err)
				return
			}
		}

		err = sealResponseTx(r.Context(), tx, surveyId, respondent, clientIP(r))
		if err != nil {
			httpx.LogInternalError(w, "db.insert_demo.response", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_demo.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"respondent": respondent,
			"answers":    len(answers),
		})
	}
}

// validateSurvey runs the authoring-time checks: every question structurally
// valid per its kind handler, payload-local group labels consistent, and the
// branch graph acyclic.
func validateSurvey(app app.App, survey *model.Survey) error {
	var errs *multierror.Error

	seen := map[int]bool{}
	for _, g := range survey.Groups {
		if g.ID == 0 {
			errs = multierror.Append(errs, errors.Errorf("group %q needs a payload-local id", g.Name))
			continue
		}
		if seen[g.ID] {
			errs = multierror.Append(errs, errors.Errorf("duplicate group id %d", g.ID))
		}
		seen[g.ID] = true
	}

	for i := range survey.Questions {
		q := &survey.Questions[i]
		handler, err := app.Resolver.ForQuestion(q.Kind)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if !handler.IsValid(q) {
			errs = multierror.Append(errs,
				errors.Errorf("question %d (%q) is not a valid %s question", q.ID, q.Text, q.Kind))
		}
		if !seen[q.GroupID] {
			errs = multierror.Append(errs,
				errors.Errorf("question %d references unknown group %d", q.ID, q.GroupID))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	return engine.ValidateGraph(survey)
}

func sealResponseTx(ctx context.Context, tx *sql.Tx, surveyId int, respondent, ip string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO response (survey_id, respondent, ip, complete, time)
		VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (survey_id, respondent) DO UPDATE SET complete = 1`,
		surveyId,
		respondent,
		ip,
	)
	return err
}

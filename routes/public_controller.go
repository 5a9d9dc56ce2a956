package routes

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/branchsurvey/server/app"
	"github.com/branchsurvey/server/engine"
	"github.com/branchsurvey/server/httpx"
	"github.com/branchsurvey/server/log"
	"github.com/branchsurvey/server/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
)

// PublicGetSurveyById hands a respondent the survey aggregate along with
// their answers so far, each answer shaped by its kind definition so the
// client always receives a fully-initialized value (select-all answers come
// with one selection slot per option).
func PublicGetSurveyById(app app.App) http.HandlerFunc {
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

		respondent, err := respondentToken(w, r)
		if err != nil {
			httpx.LogInternalError(w, "respondent.token", err)
			return
		}

		stored, err := loadAnswers(r.Context(), app.DB, surveyId, respondent)
		if err != nil {
			httpx.LogInternalError(w, "db.get_answers", err)
			return
		}

		answers := make([]model.Answer, 0, len(survey.Questions))
		for i := range survey.Questions {
			q := &survey.Questions[i]
			def, err := app.Catalog.DefinitionFor(q.Kind)
			if err != nil {
				httpx.LogInternalError(w, "engine.definition_for", err)
				return
			}
			answer, err := def.EnsureAnswerInitialized(q, stored[q.ID])
			if err != nil {
				httpx.LogInternalError(w, "engine.init_answer", err)
				return
			}
			answers = append(answers, answer)
		}

		entry, err := survey.EntryGroup()
		if err != nil {
			httpx.LogInternalError(w, "survey.entry_group", err)
			return
		}

		complete, err := responseComplete(r.Context(), app.DB, surveyId, respondent)
		if err != nil {
			httpx.LogInternalError(w, "db.get_response", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"survey":       survey,
			"answers":      answers,
			"entryGroupId": entry.ID,
			"complete":     complete,
		})
	}
}

// PublicSaveAnswer upserts a single answer. The engine's reconciler decides
// between insert, in-place update and no-op; an idempotent resubmit touches
// nothing.
func PublicSaveAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		incoming := model.Answer{}
		err = render.DecodeJSON(r.Body, &incoming)
		if err != nil {
			if errors.Is(err, model.ErrMissingDiscriminator) {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
					"request.parse_body.answer_type", "missing answerType discriminator")
			} else {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			}
			return
		}
		if len(incoming.Selections) > 0 {
			incoming.SyncSelections()
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

		var question *model.Question
		for i := range survey.Questions {
			if survey.Questions[i].ID == incoming.QuestionID {
				question = &survey.Questions[i]
				break
			}
		}
		if question == nil {
			httpx.LogNotFound(w, "save_answer.question", incoming.QuestionID)
			return
		}

		def, err := app.Catalog.DefinitionFor(question.Kind)
		if err != nil {
			httpx.LogInternalError(w, "engine.definition_for", err)
			return
		}
		if incoming.Kind != def.AnswerKind {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
				"save_answer.kind", "answer kind %s does not match question kind %s",
				incoming.Kind, question.Kind)
			return
		}
		if err := engine.ValidateSelection(question, &incoming); err != nil {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"save_answer.selection", "%s", err)
			return
		}

		respondent, err := respondentToken(w, r)
		if err != nil {
			httpx.LogInternalError(w, "respondent.token", err)
			return
		}
		incoming.Respondent = respondent
		incoming.IP = clientIP(r)

		// a completed response is immutable
		complete, err := responseComplete(r.Context(), app.DB, surveyId, respondent)
		if err != nil {
			httpx.LogInternalError(w, "db.get_response", err)
			return
		}
		if complete {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "save_answer.response_complete")
			return
		}

		stored, err := loadAnswers(r.Context(), app.DB, surveyId, respondent)
		if err != nil {
			httpx.LogInternalError(w, "db.get_answers", err)
			return
		}

		outcome, err := app.Reconciler.Reconcile(&incoming, stored[incoming.QuestionID])
		if err != nil {
			httpx.LogInternalError(w, "engine.reconcile", err)
			return
		}

		switch outcome {
		case engine.ReconcileInsert:
			var answerId int
			err = app.QueryRowContext(r.Context(), `
				INSERT INTO answer (
					question_id, respondent, kind, ip, complete,
					text, flag, rating, selected_option_id, selected_options
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				RETURNING id`,
				incoming.QuestionID,
				incoming.Respondent,
				incoming.Kind,
				incoming.IP,
				incoming.Complete,
				incoming.Text,
				incoming.Flag,
				incoming.Rating,
				incoming.SelectedOptionID,
				incoming.SelectedOptions,
			).Scan(&answerId)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_answer", err)
				return
			}

			w.WriteHeader(http.StatusCreated)
			render.JSON(w, r, map[string]any{
				"id": answerId,
			})

		case engine.ReconcileUpdate:
			existing := stored[incoming.QuestionID]
			_, err = app.ExecContext(r.Context(), `
				UPDATE answer
				SET ip = ?, complete = ?,
					text = ?, flag = ?, rating = ?,
					selected_option_id = ?, selected_options = ?
				WHERE id = ?`,
				incoming.IP,
				incoming.Complete,
				incoming.Text,
				incoming.Flag,
				incoming.Rating,
				incoming.SelectedOptionID,
				incoming.SelectedOptions,
				existing.ID,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.update_answer", err)
				return
			}

			w.WriteHeader(http.StatusNoContent)

		default:
			// idempotent resubmit: no write, no touched timestamps
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// PublicAdvanceGroup asks the navigator what follows the given group. A
// terminal decision seals the whole response.
func PublicAdvanceGroup(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}
		groupId, err := strconv.Atoi(chi.URLParam(r, "groupId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.group_id")
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

		respondent, err := respondentToken(w, r)
		if err != nil {
			httpx.LogInternalError(w, "respondent.token", err)
			return
		}

		answers, err := loadAnswers(r.Context(), app.DB, surveyId, respondent)
		if err != nil {
			httpx.LogInternalError(w, "db.get_answers", err)
			return
		}

		decision, err := app.Navigator.Advance(survey, groupId, answers)
		if err != nil {
			var required *engine.RequiredError
			switch {
			case errors.As(err, &required):
				log.Debugf("advance.required: %s", required)
				w.WriteHeader(http.StatusUnprocessableEntity)
				render.JSON(w, r, required)
			case errors.Is(err, engine.ErrUnknownReference):
				httpx.LogStatusMsg(w, http.StatusConflict, log.WarnLevel,
					"advance.reference", "%s", err)
			default:
				httpx.LogInternalError(w, "engine.advance", err)
			}
			return
		}

		if decision.Terminal {
			err = sealResponse(r.Context(), app, surveyId, respondent, clientIP(r))
			if err != nil {
				httpx.LogInternalError(w, "db.seal_response", err)
				return
			}
		}

		render.JSON(w, r, decision)
	}
}

func responseComplete(ctx context.Context, db *sql.DB, surveyId int, respondent string) (bool, error) {
	var complete bool
	err := db.QueryRowContext(ctx, `
		SELECT complete FROM response
		WHERE survey_id = ?
			AND respondent = ?`,
		surveyId,
		respondent,
	).Scan(&complete)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return complete, err
}

func sealResponse(ctx context.Context, app app.App, surveyId int, respondent, ip string) error {
	_, err := app.ExecContext(ctx, `
		INSERT INTO response (survey_id, respondent, ip, complete, time)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (survey_id, respondent) DO UPDATE SET complete = 1`,
		surveyId,
		respondent,
		ip,
		time.Now(),
	)
	return err
}

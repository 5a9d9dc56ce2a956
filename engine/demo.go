package engine

import (
	"math/rand"

	"github.com/branchsurvey/server/model"
	"github.com/pkg/errors"
)

// DemoAnswers synthesizes one complete random answer per question of the
// survey, for sandbox data and layout previews. Answers come back ready to
// insert, tagged complete.
func DemoAnswers(survey *model.Survey, resolver *Resolver, rng *rand.Rand, respondent, ip string) ([]model.Answer, error) {
	answers := make([]model.Answer, 0, len(survey.Questions))
	for i := range survey.Questions {
		q := &survey.Questions[i]

		handler, err := resolver.ForQuestion(q.Kind)
		if err != nil {
			return nil, err
		}

		answer, err := handler.CreateDemoAnswer(q, rng, respondent)
		if err != nil {
			return nil, errors.Wrapf(err, "demo answer for question %d", q.ID)
		}
		answer.IP = ip

		answers = append(answers, answer)
	}
	return answers, nil
}

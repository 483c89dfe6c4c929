// Package qcm implements the coverage-needs questionnaire: a fixed French
// question set scored into a plan recommendation.
package qcm

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"assurbot/internal/models"
)

// Submission maps question ids to the selected option labels.
type Submission map[string][]string

// Contact is the optional lead block of a submission.
type Contact struct {
	Firstname string `json:"firstname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Result is the wizard's recommendation.
type Result struct {
	Plan      string `json:"plan"`
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

// Plan bands, highest first.
const (
	planPremium   = "Plan Confort Premium"
	planConfort   = "Plan Confort"
	planEssentiel = "Plan Essentiel"
)

// Service evaluates questionnaire submissions. Scoring is deterministic:
// option weights sum to a 0-100 need score, mapped onto three plan bands.
type Service struct {
	questions []Question
	maxScore  int
	leads     models.LeadSink
	logger    *logrus.Logger
}

// NewService creates the wizard service. The lead sink may be nil; results
// are then computed without being stored.
func NewService(questions []Question, leads models.LeadSink, logger *logrus.Logger) *Service {
	if questions == nil {
		questions = DefaultQuestions()
	}
	if logger == nil {
		logger = logrus.New()
	}
	max := 0
	for _, q := range questions {
		if q.Multiple {
			for _, o := range q.Options {
				max += o.Weight
			}
			continue
		}
		best := 0
		for _, o := range q.Options {
			if o.Weight > best {
				best = o.Weight
			}
		}
		max += best
	}
	return &Service{questions: questions, maxScore: max, leads: leads, logger: logger}
}

// Questions returns the question set for rendering.
func (s *Service) Questions() []Question {
	return s.questions
}

// Evaluate validates and scores a submission.
func (s *Service) Evaluate(submission Submission) (Result, error) {
	total := 0
	for _, q := range s.questions {
		selected := submission[q.ID]
		if len(selected) == 0 {
			return Result{}, fmt.Errorf("question %q is unanswered", q.ID)
		}
		if !q.Multiple && len(selected) > 1 {
			return Result{}, fmt.Errorf("question %q accepts a single answer", q.ID)
		}
		for _, label := range selected {
			weight, ok := optionWeight(q, label)
			if !ok {
				return Result{}, fmt.Errorf("question %q has no option %q", q.ID, label)
			}
			total += weight
		}
	}

	score := total * 100 / s.maxScore
	plan := planFor(score)
	return Result{
		Plan:      plan,
		Score:     score,
		Rationale: rationaleFor(plan, score),
	}, nil
}

// Submit evaluates a submission and, when contact details are provided,
// stores the result as a lead. Store failures are logged, not returned:
// the visitor always gets their recommendation.
func (s *Service) Submit(submission Submission, contact Contact) (Result, error) {
	result, err := s.Evaluate(submission)
	if err != nil {
		return Result{}, err
	}

	if s.leads != nil && contact.Email != "" {
		lead := models.Lead{
			ID:     uuid.NewString(),
			Source: "qcm",
			Fields: map[string]string{
				"firstname": contact.Firstname,
				"email":     contact.Email,
				"phone":     contact.Phone,
				"plan":      result.Plan,
				"score":     fmt.Sprintf("%d", result.Score),
			},
			CreatedAt: time.Now(),
		}
		if err := s.leads.SubmitLead(lead); err != nil {
			s.logger.WithError(err).Error("Failed to store qcm lead")
		}
	}
	return result, nil
}

func optionWeight(q Question, label string) (int, bool) {
	for _, o := range q.Options {
		if o.Label == label {
			return o.Weight, true
		}
	}
	return 0, false
}

func planFor(score int) string {
	switch {
	case score >= 80:
		return planPremium
	case score >= 55:
		return planConfort
	default:
		return planEssentiel
	}
}

func rationaleFor(plan string, score int) string {
	switch plan {
	case planPremium:
		return fmt.Sprintf("Basé sur vos réponses, nous recommandons notre %s qui offre une couverture complète adaptée à votre profil familial et professionnel. Votre score de %d/100 indique un excellent niveau de préparation.", plan, score)
	case planConfort:
		return fmt.Sprintf("Basé sur vos réponses, nous recommandons notre %s : une couverture équilibrée entre protection de vos proches et maîtrise de votre budget. Votre score de %d/100 reflète des besoins intermédiaires.", plan, score)
	default:
		return fmt.Sprintf("Basé sur vos réponses, nous recommandons notre %s qui couvre l'essentiel de vos besoins actuels. Votre score de %d/100 indique des besoins de couverture limités.", plan, score)
	}
}

package qcm

// Option is one selectable answer with its contribution to the coverage
// need score.
type Option struct {
	Label  string `json:"label"`
	Weight int    `json:"-"`
}

// Question is one step of the wizard.
type Question struct {
	ID       string   `json:"id"`
	Text     string   `json:"question"`
	Options  []Option `json:"options"`
	Multiple bool     `json:"multiple"`
}

// DefaultQuestions returns the production question set.
func DefaultQuestions() []Question {
	return []Question{
		{
			ID:   "situation",
			Text: "Quelle est votre situation familiale ?",
			Options: []Option{
				{Label: "Célibataire sans enfant", Weight: 5},
				{Label: "En couple sans enfant", Weight: 10},
				{Label: "En couple avec enfant(s)", Weight: 20},
				{Label: "Parent célibataire", Weight: 20},
				{Label: "Autre situation", Weight: 10},
			},
		},
		{
			ID:   "logement",
			Text: "Quel type de logement occupez-vous ?",
			Options: []Option{
				{Label: "Appartement en location", Weight: 5},
				{Label: "Appartement en propriété", Weight: 15},
				{Label: "Maison en location", Weight: 10},
				{Label: "Maison en propriété", Weight: 20},
				{Label: "Logement de fonction", Weight: 5},
			},
		},
		{
			ID:   "revenus",
			Text: "Dans quelle tranche se situent vos revenus mensuels ?",
			Options: []Option{
				{Label: "Moins de 2 000€", Weight: 5},
				{Label: "2 000€ - 3 500€", Weight: 10},
				{Label: "3 500€ - 5 000€", Weight: 15},
				{Label: "5 000€ - 7 500€", Weight: 20},
				{Label: "Plus de 7 500€", Weight: 20},
			},
		},
		{
			ID:       "priorites",
			Text:     "Quelles sont vos priorités en matière d'assurance ? (plusieurs choix possibles)",
			Multiple: true,
			Options: []Option{
				{Label: "Protection de ma famille", Weight: 10},
				{Label: "Sécurité financière", Weight: 5},
				{Label: "Couverture santé optimale", Weight: 10},
				{Label: "Protection de mes biens", Weight: 5},
				{Label: "Préparation de la retraite", Weight: 5},
				{Label: "Assurance professionnelle", Weight: 5},
			},
		},
	}
}

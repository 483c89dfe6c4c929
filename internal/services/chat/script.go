package chat

import "assurbot/internal/models"

// Script bundles the static dialogue content: welcome text, quick
// suggestions, intent rules, conversion triggers and structured steps.
type Script struct {
	Welcome          string
	QuickSuggestions []string
	IntentRules      []models.IntentRule
	Triggers         []string
	Fallback         string
	Reminder         string
	AutoOffer        string
	Validation       string
	Decline          string
	DeclineReply     string
	Confirmation     string
	LeadCapture      models.DialogStep
}

// DefaultScript returns the production dialogue script.
func DefaultScript() *Script {
	return &Script{
		Welcome: "Bonjour 👋 Je suis l'assistant assurance de Prévoyance Services.\n\n" +
			"Posez-moi vos questions (santé, prévoyance, auto, habitation, pro/TNS, animaux)… " +
			"ou demandez un devis gratuit en 2 minutes.",

		QuickSuggestions: []string{
			"Comparer mutuelles santé 🏥",
			"Un devis auto 🚗",
			"Protéger ma famille 👨‍👩‍👧‍👦",
			"Être rappelé 📞",
		},

		// Evaluation order matters: the first rule whose keyword matches wins.
		IntentRules: []models.IntentRule{
			{
				Topic:    "mutuelle",
				Keywords: []string{"mutuelle", "santé"},
				Response: "Bonne question 🙌\nLa mutuelle rembourse vos frais de santé (médecin, optique, dentaire).\n👉 Voulez-vous que je vous propose une simulation adaptée à votre profil ?",
			},
			{
				Topic:    "prévoyance",
				Keywords: []string{"prévoyance", "invalidité", "famille"},
				Response: "Excellente question ! 💡\nLa prévoyance protège vos revenus et vos proches en cas d'accident, invalidité ou décès.\n👉 Souhaitez-vous un devis personnalisé pour votre situation ?",
			},
			{
				Topic:    "auto",
				Keywords: []string{"auto", "voiture"},
				Response: "Parfait ! 🚗\nL'assurance auto va du tiers (obligatoire) au tous risques. Inclut assistance 0 km, garanties conducteur, protection juridique.\n👉 Voulez-vous comparer les meilleures offres pour votre véhicule ?",
			},
			{
				Topic:    "habitation",
				Keywords: []string{"habitation", "logement"},
				Response: "Très important ! 🏠\nL'assurance habitation couvre incendie, dégât des eaux, vol, responsabilité civile. Option valeur à neuf disponible.\n👉 Puis-je vous préparer un devis adapté à votre logement ?",
			},
			{
				Topic:    "pro",
				Keywords: []string{"pro", "professionnel"},
				Response: "Essentiel pour votre activité ! 💼\nRC pro, multirisque bureau, flotte véhicules, santé collective, prévoyance TNS.\n👉 Voulez-vous qu'on étudie vos besoins professionnels ?",
			},
			{
				Topic:    "animaux",
				Keywords: []string{"animaux", "chien", "chat"},
				Response: "Très sage ! 🐕\nL'assurance animaux rembourse frais vétérinaires, hospitalisation, prévention selon plafonds choisis.\n👉 Souhaitez-vous un devis pour protéger votre compagnon ?",
			},
		},

		// Any of these in visitor input fast-tracks to lead capture,
		// bypassing topic classification.
		Triggers: []string{
			"devis",
			"contact",
			"rappel",
			"prix",
			"simulation",
			"protéger",
			"souscrire",
			"comparer",
			"tarif",
			"coût",
			"combien",
			"offre",
		},

		Fallback: "Pour une réponse plus précise, je peux vous mettre en contact avec un conseiller. 📞\n👉 Voulez-vous un rappel ou un devis personnalisé ?",

		Reminder: "Toujours là si vous voulez un devis gratuit 🙂",

		AutoOffer: "Souhaitez-vous qu'on vous rappelle dans la journée pour en discuter ?",

		Validation: "Veuillez remplir tous les champs obligatoires.",

		Decline:      "Non merci",
		DeclineReply: "Pas de problème ! N'hésitez pas à revenir si vous avez des questions. Bonne journée ! 👋",

		Confirmation: "Parfait ! ✅ Nous avons bien enregistré votre demande.\n\n" +
			"Un conseiller vous contactera sous 24h pour vous proposer les meilleures offres adaptées à votre profil.\n\n" +
			"À très bientôt ! 👋",

		LeadCapture: models.DialogStep{
			ID:     "lead_capture",
			Prompt: "Parfait ! Pour vous préparer un devis personnalisé, j'ai besoin de quelques informations :",
			Kind:   models.StepForm,
			Fields: []models.FormField{
				{Name: "firstname", Label: "Prénom", Input: "text", Required: true},
				{Name: "email", Label: "Email", Input: "email", Required: true},
				{Name: "phone", Label: "Téléphone", Input: "tel", Required: true},
				{Name: "consent", Label: "J'accepte la politique de confidentialité", Input: "checkbox", Required: true},
			},
			OnComplete: []models.StepAction{
				{Action: "store:Lead"},
				{
					Action:   "email",
					To:       "contact@prevoyanceservices.fr",
					Subject:  "Lead Chatbot - Demande de devis",
					Template: "lead-chat",
				},
			},
		},
	}
}

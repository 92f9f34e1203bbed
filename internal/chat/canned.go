package chat

import "curator/internal/domain"

// CannedAnswers returns the demonstration payloads. Each call returns a
// fresh copy.
func CannedAnswers() []domain.Answer {
	return []domain.Answer{
		{
			Content: "Beta-blockers function through competitive antagonism of beta-adrenergic receptors, primarily β1-receptors in cardiac tissue. In heart failure, they work by: (1) Reducing heart rate and myocardial oxygen demand, (2) Decreasing adverse ventricular remodeling through neurohormonal modulation, (3) Improving diastolic filling time, and (4) Reducing catecholamine-induced cardiotoxicity. Studies demonstrate significant mortality reduction in HFrEF patients when titrated appropriately.",
			Sources: []domain.Source{
				{Title: "Pharmacology of Beta-Adrenergic Blockers", Category: "Cardiology", Page: "p. 234-241"},
				{Title: "Heart Failure Management Guidelines", Category: "Cardiology", Page: "p. 89-94"},
				{Title: "Neurohormonal Mechanisms in HF", Category: "Cardiology", Page: "p. 156-162"},
			},
			Confidence: percent(94),
		},
		{
			Content: "The epidermis consists of five distinct layers from deep to superficial: (1) Stratum basale - contains stem cells and melanocytes, responsible for continuous cell renewal, (2) Stratum spinosum - provides structural integrity via desmosomes, (3) Stratum granulosum - initiates keratinization with lamellar granules, (4) Stratum lucidum - only in thick skin, provides additional barrier protection, (5) Stratum corneum - fully keratinized cells forming the primary barrier against environmental insults.",
			Sources: []domain.Source{
				{Title: "Histology of Integumentary System", Category: "Anatomy & Physiology", Page: "p. 112-128"},
				{Title: "Skin Barrier Function and Pathology", Category: "Anatomy & Physiology", Page: "p. 45-52"},
			},
			Confidence: percent(97),
		},
		{
			Content: "Diabetic ketoacidosis (DKA) develops through a cascade of metabolic derangements: Insulin deficiency combined with counter-regulatory hormone excess leads to: (1) Accelerated lipolysis and free fatty acid oxidation producing ketone bodies (β-hydroxybutyrate, acetoacetate), (2) Uncontrolled hepatic gluconeogenesis causing hyperglycemia, (3) Osmotic diuresis resulting in severe dehydration and electrolyte depletion, (4) Progressive metabolic acidosis with anion gap elevation. The triad of hyperglycemia, ketosis, and acidosis defines the syndrome.",
			Sources: []domain.Source{
				{Title: "Endocrine Emergencies Handbook", Category: "Emergency Medicine", Page: "p. 67-74"},
				{Title: "Metabolic Acidosis: Mechanisms", Category: "Emergency Medicine", Page: "p. 201-215"},
				{Title: "Diabetes Mellitus Complications", Category: "Cardiology", Page: "p. 389-395"},
			},
			Confidence: percent(96),
		},
	}
}

func percent(v int) *int { return &v }

// Category is a knowledge-base section shown on the welcome panel.
type Category struct {
	Name  string
	Count int
}

// Categories lists the knowledge-base sections and their document counts.
func Categories() []Category {
	return []Category{
		{Name: "Anatomy & Physiology", Count: 280},
		{Name: "Cardiology", Count: 165},
		{Name: "Dentistry", Count: 120},
		{Name: "Emergency Medicine", Count: 195},
	}
}

// Prompt is a suggested question.
type Prompt struct {
	Text     string
	Category string
}

// SuggestedPrompts returns the example questions offered on an empty chat.
func SuggestedPrompts() []Prompt {
	return []Prompt{
		{Text: "Explain the mechanism of action for beta blockers in heart failure", Category: "Cardiology"},
		{Text: "Describe the pathophysiology of diabetic ketoacidosis", Category: "Emergency"},
		{Text: "What are the layers of the epidermis and their functions?", Category: "Anatomy"},
		{Text: "Outline the differential diagnosis for acute chest pain", Category: "Emergency"},
	}
}

package corpus

import "curator/internal/domain"

// Builtin returns the passages the reference backend serves when no
// corpus directory is configured.
func Builtin() []domain.Document {
	docs := []struct {
		source  domain.Source
		content string
	}{
		{
			domain.Source{Title: "Pharmacology of Beta-Adrenergic Blockers", Category: "Cardiology", Page: "p. 234-241"},
			"Beta-blockers act by competitive antagonism of beta-adrenergic receptors, primarily beta-1 receptors in cardiac tissue. Blocking these receptors reduces heart rate and myocardial oxygen demand. Longer diastole improves ventricular filling time. Cardioselective agents such as metoprolol and bisoprolol spare beta-2 receptors in the airways at usual doses.",
		},
		{
			domain.Source{Title: "Heart Failure Management Guidelines", Category: "Cardiology", Page: "p. 89-94"},
			"In heart failure with reduced ejection fraction, beta-blockers reduce mortality and hospitalisation when titrated appropriately. Therapy starts at a low dose in stable patients and is increased every two to four weeks. Carvedilol, metoprolol succinate and bisoprolol are the agents with proven outcome benefit in heart failure.",
		},
		{
			domain.Source{Title: "Neurohormonal Mechanisms in HF", Category: "Cardiology", Page: "p. 156-162"},
			"Sustained sympathetic activation in heart failure drives adverse ventricular remodeling and catecholamine-induced cardiotoxicity. Neurohormonal modulation with beta-blockers attenuates remodeling and reduces arrhythmic death. The renin-angiotensin-aldosterone system is a parallel therapeutic target.",
		},
		{
			domain.Source{Title: "Histology of Integumentary System", Category: "Anatomy & Physiology", Page: "p. 112-128"},
			"The epidermis consists of five layers from deep to superficial. The stratum basale contains stem cells and melanocytes and is responsible for continuous cell renewal. The stratum spinosum provides structural integrity through desmosomes. The stratum granulosum initiates keratinization with lamellar granules. The stratum lucidum is present only in thick skin. The stratum corneum is made of fully keratinized cells.",
		},
		{
			domain.Source{Title: "Skin Barrier Function and Pathology", Category: "Anatomy & Physiology", Page: "p. 45-52"},
			"The stratum corneum forms the primary barrier of the skin against water loss and environmental insults. Lipids secreted from lamellar granules seal the space between corneocytes. Disruption of the epidermal barrier underlies atopic dermatitis and increases transepidermal water loss.",
		},
		{
			domain.Source{Title: "Endocrine Emergencies Handbook", Category: "Emergency Medicine", Page: "p. 67-74"},
			"Diabetic ketoacidosis results from insulin deficiency combined with an excess of counter-regulatory hormones. Accelerated lipolysis and fatty acid oxidation produce ketone bodies such as beta-hydroxybutyrate and acetoacetate. Treatment combines fluid resuscitation, intravenous insulin and potassium replacement.",
		},
		{
			domain.Source{Title: "Metabolic Acidosis: Mechanisms", Category: "Emergency Medicine", Page: "p. 201-215"},
			"Ketoacids dissociate and consume bicarbonate, producing a high anion gap metabolic acidosis. Osmotic diuresis from hyperglycemia causes severe dehydration and electrolyte depletion. The triad of hyperglycemia, ketosis and acidosis defines diabetic ketoacidosis.",
		},
		{
			domain.Source{Title: "Diabetes Mellitus Complications", Category: "Cardiology", Page: "p. 389-395"},
			"Uncontrolled hepatic gluconeogenesis and glycogenolysis drive hyperglycemia in insulin deficiency. Chronic hyperglycemia accelerates atherosclerosis and raises the risk of myocardial infarction in diabetic patients.",
		},
		{
			domain.Source{Title: "Approach to Acute Chest Pain", Category: "Emergency Medicine", Page: "p. 12-19"},
			"The differential diagnosis of acute chest pain starts with life-threatening causes: acute coronary syndrome, aortic dissection, pulmonary embolism, tension pneumothorax and esophageal rupture. An electrocardiogram within ten minutes and serial troponin measurements identify myocardial infarction. Musculoskeletal pain and gastroesophageal reflux are common benign causes.",
		},
		{
			domain.Source{Title: "Periodontal Disease Essentials", Category: "Dentistry", Page: "p. 58-63"},
			"Periodontitis is a chronic inflammatory disease of the tooth-supporting tissues driven by bacterial plaque. Loss of clinical attachment and alveolar bone distinguishes periodontitis from gingivitis. Periodontal inflammation has been associated with cardiovascular disease.",
		},
	}
	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		out[i] = domain.Document{
			ID:      hashString("builtin:" + d.source.Title),
			Path:    "builtin",
			Content: d.content,
			Source:  d.source,
		}
	}
	return out
}

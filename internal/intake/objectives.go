package intake

// DefaultObjectives returns the fixed objective list printed on a certificate
// when objective generation is unavailable.
func DefaultObjectives() []string {
	return []string{
		"Acquérir les compétences clés liées à la formation",
		"Comprendre les enjeux théoriques et pratiques",
		"Mettre en œuvre les stratégies apprises",
		"Autonomie sur les outils présentés",
	}
}

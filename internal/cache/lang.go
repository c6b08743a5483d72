package cache

// DetectLanguage applies the historical coarse heuristic: any ASCII
// letter means "english", otherwise "japanese". It misclassifies
// mixed-script text and is kept only as a non-authoritative metadata
// hint, never as a behavioral switch.
func DetectLanguage(text string) string {
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return "english"
		}
	}
	return "japanese"
}

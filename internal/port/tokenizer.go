package port

type Tokenizer interface {
	Tokenize(text string) []string

	Normalize(text string) string

	// CountTokens estimates the token cost of the text for budgeting.
	CountTokens(text string) int
}

package analyzer

// defaultStopwords returns the Portuguese stopword set extended with a
// small English set for mixed-language documents. Entries are stored
// folded, so the set matches tokens after accent stripping.
func defaultStopwords() map[string]struct{} {
	words := []string{
		// Portuguese
		"a", "ao", "aos", "aquela", "aquelas", "aquele", "aqueles", "aquilo",
		"as", "até", "com", "como", "da", "das", "de", "dela", "delas", "dele",
		"deles", "depois", "do", "dos", "e", "ela", "elas", "ele", "eles", "em",
		"entre", "era", "eram", "essa", "essas", "esse", "esses", "esta", "estas",
		"este", "estes", "eu", "foi", "fomos", "for", "fora", "foram", "forem",
		"fosse", "fossem", "há", "isso", "isto", "já", "lhe", "lhes", "lo", "mas",
		"me", "mesmo", "meu", "meus", "minha", "minhas", "muito", "na", "nas",
		"nem", "no", "nos", "nossa", "nossas", "nosso", "nossos", "num", "numa",
		"não", "nós", "o", "os", "ou", "para", "pela", "pelas", "pelo", "pelos",
		"por", "qual", "quando", "que", "quem", "se", "seja", "sejam", "sem",
		"seu", "seus", "só", "somos", "sou", "sua", "suas", "são", "também",
		"te", "tem", "temos", "ter", "teu", "teus", "tinha", "tinham", "tu",
		"tua", "tuas", "tudo", "um", "uma", "umas", "uns", "você", "vocês", "vos",
		"à", "às", "é", "éramos",
		// notarial filler that carries no retrieval signal
		"conforme", "referente", "mediante", "presente", "sendo", "tendo",
		// English
		"an", "and", "are", "at", "be", "by", "for", "from", "has", "he",
		"in", "is", "it", "its", "of", "on", "that", "the", "to", "was",
		"were", "will", "with", "this", "have", "had", "but", "not", "you",
		"your", "we", "our", "they", "their", "she", "her", "his", "if", "or",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[fold(w)] = struct{}{}
	}
	return m
}

// technicalTerms returns short terms exempt from the length filter:
// license names, Brazilian financial instruments and identity documents.
func technicalTerms() map[string]struct{} {
	terms := []string{
		"gpl", "agpl", "lgpl", "mit", "apache", "bsd", "mpl",
		"btg", "cdb", "lci", "lca", "cri", "cra", "fii", "etf",
		"cpf", "cnpj", "rg", "ntn", "lft", "ltn",
	}
	m := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		m[term] = struct{}{}
	}
	return m
}

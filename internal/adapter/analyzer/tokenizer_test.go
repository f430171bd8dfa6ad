package analyzer

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tok := NewTokenizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"accented word", "Licença", "licenca"},
		{"uppercase heading", "CLÁUSULA", "clausula"},
		{"tilde and cedilla", "ações", "acoes"},
		{"grave accent", "às", "as"},
		{"plain ascii", "contrato", "contrato"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tok := NewTokenizer()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "accents fold to plain tokens",
			input: "Licença de uso",
			want:  []string{"licenca", "uso"},
		},
		{
			name:  "portuguese stopwords dropped",
			input: "o imóvel registrado em nome do vendedor",
			want:  []string{"imovel", "registrado", "nome", "vendedor"},
		},
		{
			name:  "accented stopwords dropped after folding",
			input: "não há débitos até hoje",
			want:  []string{"debitos", "hoje"},
		},
		{
			name:  "technical terms survive the length filter",
			input: "documento RG e CPF do comprador",
			want:  []string{"documento", "rg", "cpf", "comprador"},
		},
		{
			name:  "license acronyms kept",
			input: "licenças MIT e AGPL",
			want:  []string{"licencas", "mit", "agpl"},
		},
		{
			name:  "numbers kept",
			input: "matrícula 48.291 de 2024",
			want:  []string{"matricula", "48", "291", "2024"},
		},
		{
			name:  "short tokens dropped",
			input: "x y z contrato",
			want:  []string{"contrato"},
		},
		{
			name:  "punctuation never emitted",
			input: "--- ;;; ...",
			want:  []string{},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "stopwords only",
			input: "de da do em para",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizer_Deterministic(t *testing.T) {
	tok := NewTokenizer()
	input := "CLÁUSULA PRIMEIRA - DO OBJETO: venda do imóvel matrícula 48.291"

	first := tok.Tokenize(input)
	for i := 0; i < 10; i++ {
		if got := tok.Tokenize(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, want %v", i, got, first)
		}
	}
}

func TestTokenizer_AddStopwordsFoldsEntries(t *testing.T) {
	tok := NewTokenizer()
	tok.AddStopwords("cartório")

	got := tok.Tokenize("o cartório registrou a escritura")
	want := []string{"registrou", "escritura"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizer_AddTechnicalTermsBeatsStopwords(t *testing.T) {
	tok := NewTokenizer()

	// "os" is a stopword by default; registering it as a technical term
	// (the operating system sense) keeps it.
	before := tok.Tokenize("sistema os instalado")
	if len(before) != 2 {
		t.Fatalf("expected 'os' dropped before registration, got %v", before)
	}

	tok.AddTechnicalTerms("os")
	got := tok.Tokenize("sistema os instalado")
	want := []string{"sistema", "os", "instalado"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizer_StemmingMergesInflectedForms(t *testing.T) {
	tok := NewTokenizer()
	tok.EnableStemming()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "plural and singular share a term",
			input: "As multas contratuais do contrato",
			want:  []string{"mult", "contratual", "contrat"},
		},
		{
			name:  "accents fold before stemming",
			input: "CLÁUSULAS",
			want:  []string{"clausul"},
		},
		{
			name:  "technical terms bypass the stemmer",
			input: "documento CPF do locador",
			want:  []string{"document", "cpf", "loc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	plain := NewTokenizer()
	if got := plain.Tokenize("multas"); !reflect.DeepEqual(got, []string{"multas"}) {
		t.Errorf("default tokenizer must not stem, got %v", got)
	}
}

func TestTokenizer_CountTokens(t *testing.T) {
	tok := NewTokenizer()

	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"contrato", 1},
		{"multa por atraso", 3},
		{"de da do", 3},
		{"o locatario pagara multa por atraso no pagamento do aluguel", 13},
	}

	for _, tt := range tests {
		if got := tok.CountTokens(tt.input); got != tt.want {
			t.Errorf("CountTokens(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"venda e compra", 3},
		{"lote_12", 1},
		{"item-4", 2},
		{"48.291", 2},
		{"MATRÍCULA", 1},
		{"", 0},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if len(words) != tt.expected {
			t.Errorf("splitWords(%q) = %d words, want %d: %v", tt.input, len(words), tt.expected, words)
		}
	}
}

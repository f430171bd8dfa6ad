package analyzer

import "testing"

func TestPortugueseStemmer_InflectedFamiliesConverge(t *testing.T) {
	s := NewPortugueseStemmer()

	families := []struct {
		name  string
		words []string
		want  string
	}{
		{"multa", []string{"multa", "multas"}, "mult"},
		{"locacao", []string{"locacao", "locacoes", "locador", "locadora"}, "loc"},
		{"pagamento", []string{"pagamento", "pagamentos", "pagando", "pagar"}, "pag"},
		{"aluguel", []string{"aluguel", "alugueis"}, "aluguel"},
		{"vigencia", []string{"vigencia", "vigencias"}, "vig"},
		{"garantia", []string{"garantia", "garantias"}, "garanti"},
		{"caucao", []string{"caucao", "caucoes"}, "cauca"},
		{"contrato", []string{"contrato", "contratos"}, "contrat"},
		{"clausula", []string{"clausula", "clausulas"}, "clausul"},
		{"imovel", []string{"imovel", "imoveis"}, "imovel"},
		{"oneroso", []string{"oneroso", "onerosa"}, "oner"},
		{"mes", []string{"mes", "meses"}, "mes"},
		{"lei", []string{"lei", "leis"}, "lei"},
	}

	for _, f := range families {
		t.Run(f.name, func(t *testing.T) {
			for _, w := range f.words {
				if got := s.Stem(w); got != f.want {
					t.Errorf("Stem(%q) = %q, want %q", w, got, f.want)
				}
			}
		})
	}
}

func TestPortugueseStemmer_SuffixClasses(t *testing.T) {
	s := NewPortugueseStemmer()

	cases := []struct {
		word string
		want string
	}{
		{"contratuais", "contratual"},
		{"civis", "civil"},
		{"bens", "bem"},
		{"vezes", "vez"},
		{"devedor", "dev"},
		{"notificacoes", "notific"},
		{"responsabilidade", "responsabil"},
		{"penalidade", "penal"},
		{"mensalmente", "mensal"},
		{"rescisao", "rescisa"},
	}

	for _, tc := range cases {
		if got := s.Stem(tc.word); got != tc.want {
			t.Errorf("Stem(%q) = %q, want %q", tc.word, got, tc.want)
		}
	}
}

func TestPortugueseStemmer_ShortWordsPassThrough(t *testing.T) {
	s := NewPortugueseStemmer()

	for _, w := range []string{"ja", "um", "re", "x"} {
		if got := s.Stem(w); got != w {
			t.Errorf("Stem(%q) = %q, short words must not change", w, got)
		}
	}

	// A stem guard keeps suffixes that would leave almost nothing.
	if got := s.Stem("fiador"); got != "fiador" {
		t.Errorf("Stem(fiador) = %q, stripping would leave a two-byte stem", got)
	}
}

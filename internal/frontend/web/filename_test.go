package web

import "testing"

func TestSafeFilename(t *testing.T) {
	cases := []struct {
		Name   string
		In     string
		Expect string
	}{
		{Name: "Plain", In: "Garasjen", Expect: "Garasjen"},
		{Name: "Spaces", In: "Sameiet Bakkegata", Expect: "Sameiet_Bakkegata"},
		{Name: "SpecialChars", In: `a<b>c:d"e/f\g|h?i*j`, Expect: "a_b_c_d_e_f_g_h_i_j"},
		{Name: "TrimsDotsAndSpaces", In: " .name. ", Expect: "name"},
		{Name: "Empty", In: "", Expect: ""},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			if safe := safeFilename(tc.In); safe != tc.Expect {
				t.Fatalf("expected %q, got %q", tc.Expect, safe)
			}
		})
	}
}

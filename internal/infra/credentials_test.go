package infra

import "testing"

func TestAccessTokenShape(t *testing.T) {
	token, err := NewAccessToken()
	if err != nil {
		t.Fatal(err)
	}
	if len(token) != accessTokenBytes*2 {
		t.Errorf("token length = %d, want %d", len(token), accessTokenBytes*2)
	}
	for _, c := range token {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("token contains non-hex character %q", c)
		}
	}
}

func TestAccessTokenIsFreshEveryCall(t *testing.T) {
	first, err := NewAccessToken()
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewAccessToken()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two generated tokens are identical")
	}
}

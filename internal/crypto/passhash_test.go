package crypto

import (
	"bytes"
	"testing"
)

func TestHashRoundTrip(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("new salt: %v", err)
	}
	stored := Hash("correct horse", salt)

	if !Verify("correct horse", salt, stored) {
		t.Fatal("correct password must verify")
	}
	if Verify("wrong horse", salt, stored) {
		t.Fatal("wrong password must not verify")
	}
}

func TestHashSaltsDiffer(t *testing.T) {
	s1, _ := NewSalt()
	s2, _ := NewSalt()
	if bytes.Equal(s1, s2) {
		t.Fatal("two salts must differ")
	}
	if bytes.Equal(Hash("pw", s1), Hash("pw", s2)) {
		t.Fatal("same password under different salts must hash differently")
	}
}

package utils

import (
	"regexp"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "s3cret-pass") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "wrong-pass") {
		t.Error("wrong password accepted")
	}
}

func TestTempEmployeePassword(t *testing.T) {
	re := regexp.MustCompile(`^PP-EMP-[0-9]{6}$`)
	for i := 0; i < 20; i++ {
		p, err := TempEmployeePassword()
		if err != nil {
			t.Fatalf("TempEmployeePassword: %v", err)
		}
		if !re.MatchString(p) {
			t.Fatalf("password %q does not match PP-EMP-nnnnnn", p)
		}
	}
}

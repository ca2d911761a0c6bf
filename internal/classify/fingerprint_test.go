package classify

import "testing"

// TestFingerprint tests the SHA-256 content fingerprint.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	t.Run("known digests", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			text string
			want string
		}{
			{text: "", want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
			{text: "Hello, World!", want: "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"},
		}
		for _, tt := range tests {
			if got := Fingerprint(tt.text); got != tt.want {
				t.Errorf("Fingerprint(%q) = %q, want %q", tt.text, got, tt.want)
			}
		}
	})

	t.Run("identical text yields identical fingerprint", func(t *testing.T) {
		t.Parallel()

		if Fingerprint("What is the deadline?") != Fingerprint("What is the deadline?") {
			t.Error("expected identical fingerprints")
		}
	})

	t.Run("differing text yields differing fingerprint", func(t *testing.T) {
		t.Parallel()

		if Fingerprint("deadline") == Fingerprint("Deadline") {
			t.Error("expected fingerprints to differ")
		}
	})
}

// TestNewFingerprinter tests algorithm selection.
func TestNewFingerprinter(t *testing.T) {
	t.Parallel()

	t.Run("default is sha256", func(t *testing.T) {
		t.Parallel()

		f, err := NewFingerprinter("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Algorithm() != AlgorithmSHA256 {
			t.Errorf("expected %q, got %q", AlgorithmSHA256, f.Algorithm())
		}
		if f.Fingerprint("Hello, World!") != Fingerprint("Hello, World!") {
			t.Error("expected default fingerprinter to match Fingerprint")
		}
	})

	t.Run("sha3-256", func(t *testing.T) {
		t.Parallel()

		f, err := NewFingerprinter(AlgorithmSHA3_256)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"
		if got := f.Fingerprint(""); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		t.Parallel()

		if _, err := NewFingerprinter("md5"); err == nil {
			t.Error("expected error for unsupported algorithm")
		}
	})
}

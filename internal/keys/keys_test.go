package keys

import "testing"

func TestEffective(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
		key    string
		hash   bool
		want   string
	}{
		{name: "plain", prefix: "", key: "test", want: "test"},
		{name: "prefixed", prefix: "app", key: "test", want: "app-test"},
		// known MD5 pair: md5("test")
		{name: "hashed", prefix: "", key: "test", hash: true, want: "098f6bcd4621d373cade4e832627b4f6"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Effective(tc.prefix, tc.key, tc.hash); got != tc.want {
				t.Fatalf("Effective(%q, %q, %v) = %q, want %q", tc.prefix, tc.key, tc.hash, got, tc.want)
			}
		})
	}
}

func TestHashedPrefixedDiffersFromPlain(t *testing.T) {
	plain := Effective("", "test", true)
	prefixed := Effective("app", "test", true)
	if plain == prefixed {
		t.Fatalf("hash must cover the prefix: %q == %q", plain, prefixed)
	}
}

func TestTagVersion(t *testing.T) {
	if got := TagVersion("user"); got != "cache-tags-versions:user" {
		t.Fatalf("TagVersion = %q", got)
	}
}

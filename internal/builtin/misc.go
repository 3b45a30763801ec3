package builtin

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
)

func Whoami() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

func Version() string  { return runtime.Version() }
func Os() string       { return runtime.GOOS }
func OsFamily() string {
	if runtime.GOOS == "windows" {
		return "windows"
	}
	return "unix"
}
func Arch() string { return runtime.GOARCH }

func Pwd() string {
	d, _ := os.Getwd()
	return d
}

func UserHome() string {
	h, _ := os.UserHomeDir()
	return h
}

func GetEnv(name string) string { return os.Getenv(name) }

// Encode/Decode implement the small family of text codecs
// original_source's string_util.rs exposes; base64 and hex are the two
// concrete kinds.
func Encode(kind, s string) string {
	switch kind {
	case "hex":
		return hex.EncodeToString([]byte(s))
	default:
		return base64.StdEncoding.EncodeToString([]byte(s))
	}
}

func Decode(kind, s string) (string, error) {
	switch kind {
	case "hex":
		b, err := hex.DecodeString(s)
		return string(b), err
	default:
		b, err := base64.StdEncoding.DecodeString(s)
		return string(b), err
	}
}

// Url parses a URL string into its component parts, returned as a flat
// string map for the engine's MapStrStr destination.
func Url(raw string) map[string]string {
	u, err := url.Parse(raw)
	if err != nil {
		return map[string]string{}
	}
	return map[string]string{
		"scheme": u.Scheme, "host": u.Hostname(), "port": u.Port(),
		"path": u.Path, "query": u.RawQuery, "fragment": u.Fragment,
	}
}

// Pairs parses a "k=v;k2=v2"-style string into a flat map, the shape
// original_source's pairs() helper documents for ad hoc structured
// key-value text.
func Pairs(s, itemSep, kvSep string) map[string]string {
	out := map[string]string{}
	for _, item := range strings.Split(s, itemSep) {
		if item == "" {
			continue
		}
		kv := strings.SplitN(item, kvSep, 2)
		if len(kv) == 2 {
			out[kv[0]] = kv[1]
		}
	}
	return out
}

// Path splits a filesystem path into directory/base/ext components.
func Path(p string) map[string]string {
	return map[string]string{
		"dir": filepath.Dir(p), "base": filepath.Base(p), "ext": filepath.Ext(p),
	}
}

// DataUrl wraps content as a data: URL with the given MIME type.
func DataUrl(mime, content string) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString([]byte(content)))
}

// Shlex splits a command line the way a POSIX shell's word-splitting
// would, respecting single and double quotes. Hand-rolled rather than
// pulling a shlex dependency since no example manifest in the retrieval
// pack carries one and the rule set AWK scripts need is small.
func Shlex(s string) []string {
	var out []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ' ' || c == '\t':
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// Hex2Rgb/Rgb2Hex convert between "#rrggbb" and "r,g,b" representations.
func Hex2Rgb(hexColor string) (r, g, b int, err error) {
	hexColor = strings.TrimPrefix(hexColor, "#")
	if len(hexColor) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", hexColor)
	}
	var raw []byte
	raw, err = hex.DecodeString(hexColor)
	if err != nil {
		return 0, 0, 0, err
	}
	return int(raw[0]), int(raw[1]), int(raw[2]), nil
}

func Rgb2Hex(r, g, b int) string {
	return fmt.Sprintf("#%02x%02x%02x", r&0xFF, g&0xFF, b&0xFF)
}

var fakeNames = []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank", "Grace", "Heidi"}
var fakeDomains = []string{"example.com", "example.org", "example.net"}

// Fake generates a small amount of placeholder data by kind ("name" or
// "email"; any other kind yields "fake-<kind>-<n>"). Hand-rolled rather than a faker dependency: none of
// the retrieval pack's manifests import one, and the opcode's surface
// (a handful of simple categories) doesn't need a full faker library's
// locale/format machinery.
func Fake(kind string) string {
	switch kind {
	case "email":
		return strings.ToLower(fakeNames[rand.IntN(len(fakeNames))]) + "@" + fakeDomains[rand.IntN(len(fakeDomains))]
	case "name":
		return fakeNames[rand.IntN(len(fakeNames))]
	default:
		return fmt.Sprintf("fake-%s-%d", kind, rand.IntN(1_000_000))
	}
}

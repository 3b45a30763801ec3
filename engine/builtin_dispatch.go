package engine

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/awkvm/core/internal/builtin"
)

// builtinFunc is the adapter signature every opaque built-in opcode's
// handler satisfies, per spec.md 4.1's "thin adapters from opcodes to
// external function implementations." The registry is built once per
// Interpreter rather than as a package-level map so handlers can close
// over ip without a context parameter on every call, mirroring the
// teacher's devices.go per-device adapter closures.
type builtinFunc func(ip *Interpreter, fr *frame, instr Instruction)

func newBuiltinRegistry(ip *Interpreter) map[Opcode]builtinFunc {
	reg := map[Opcode]builtinFunc{
		OpUuid:     func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.Uuid(string(fr.Str(instr.A))))) },
		OpSnowFlake: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetInt(instr.Dst, Int(builtin.SnowFlake(fr.Int(instr.A))))
		},
		OpUlid: func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.Ulid())) },
		OpTsid: func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.Tsid())) },
		OpLocalIp: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.LocalIp()))
		},
		OpWhoami:   func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.Whoami())) },
		OpVersion:  func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.Version())) },
		OpOs:       func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.Os())) },
		OpOsFamily: func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.OsFamily())) },
		OpArch:     func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.Arch())) },
		OpPwd:      func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.Pwd())) },
		OpUserHome: func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.UserHome())) },
		OpGetEnv: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.GetEnv(string(fr.Str(instr.A)))))
		},

		OpStrftime: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.Strftime(string(fr.Str(instr.A)), fr.Int(instr.B))))
		},
		OpMktime: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetInt(instr.Dst, parseMktime(string(fr.Str(instr.A)), fr.Int(instr.B) == 0))
		},
		OpDuration: func(ip *Interpreter, fr *frame, instr Instruction) {
			secs, err := builtin.Duration(string(fr.Str(instr.A)))
			if err != nil {
				secs = 0
			}
			fr.SetInt(instr.Dst, Int(secs))
		},
		OpSystime:  func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetInt(instr.Dst, Int(builtin.Systime())) },
		OpDateTime: func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.DateTime(fr.Int(instr.A)))) },

		OpEncode: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.Encode(instr.ImmStr, string(fr.Str(instr.A)))))
		},
		OpDecode: func(ip *Interpreter, fr *frame, instr Instruction) {
			s, err := builtin.Decode(instr.ImmStr, string(fr.Str(instr.A)))
			if err != nil {
				s = ""
			}
			fr.SetStr(instr.Dst, Str(s))
		},

		OpDigest: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.Digest(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},
		OpHmac: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.Hmac(string(fr.Str(instr.A)), string(fr.Str(instr.B)), string(fr.Str(instr.C)))))
		},
		OpJwt: func(ip *Interpreter, fr *frame, instr Instruction) {
			claims := mapToGo(fr.MapSS(instr.A))
			tok, err := builtin.Jwt(claims, string(fr.Str(instr.B)))
			if err != nil {
				tok = ""
			}
			fr.SetStr(instr.Dst, Str(tok))
		},
		OpDejwt: func(ip *Interpreter, fr *frame, instr Instruction) {
			claims, ok := builtin.Dejwt(string(fr.Str(instr.A)), string(fr.Str(instr.B)))
			if !ok {
				claims = nil
			}
			fr.SetMapSS(instr.Dst, goToMapSS(claims))
		},
		OpEncrypt: func(ip *Interpreter, fr *frame, instr Instruction) {
			ct, err := builtin.Encrypt(string(fr.Str(instr.A)), string(fr.Str(instr.B)))
			if err != nil {
				ip.log.Warn().Err(err).Msg("encrypt")
			}
			fr.SetStr(instr.Dst, Str(ct))
		},
		OpDecrypt: func(ip *Interpreter, fr *frame, instr Instruction) {
			pt, err := builtin.Decrypt(string(fr.Str(instr.A)), string(fr.Str(instr.B)))
			if err != nil {
				ip.log.Warn().Err(err).Msg("decrypt")
			}
			fr.SetStr(instr.Dst, Str(pt))
		},
		OpMkPassword: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.MkPassword(int(fr.Int(instr.A)))))
		},

		OpFend: evalExprHandler,
		OpEval: evalExprHandler,
		OpMapStrStrEval: func(ip *Interpreter, fr *frame, instr Instruction) {
			m := fr.MapSS(instr.A)
			out := AllocMap[Str, Str]()
			for _, k := range m.Keys() {
				v, _ := evalArith(string(m.Lookup(k)))
				out.Store(k, floatToStr(v))
			}
			fr.SetMapSS(instr.Dst, out)
		},
		OpMapStrIntEval: func(ip *Interpreter, fr *frame, instr Instruction) {
			m := fr.MapSS(instr.A)
			out := AllocMap[Str, Int]()
			for _, k := range m.Keys() {
				v, _ := evalArith(string(m.Lookup(k)))
				out.Store(k, truncToInt(v))
			}
			fr.SetMapSI(instr.Dst, out)
		},
		OpMapStrFloatEval: func(ip *Interpreter, fr *frame, instr Instruction) {
			m := fr.MapSS(instr.A)
			out := AllocMap[Str, Float]()
			for _, k := range m.Keys() {
				v, _ := evalArith(string(m.Lookup(k)))
				out.Store(k, v)
			}
			fr.SetMapSF(instr.Dst, out)
		},

		OpUrl: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapSS(instr.Dst, goToMapSS(builtin.Url(string(fr.Str(instr.A)))))
		},
		OpPairs: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapSS(instr.Dst, goToMapSS(builtin.Pairs(string(fr.Str(instr.A)), string(fr.Str(instr.B)), string(fr.Str(instr.C)))))
		},
		OpRecord: func(ip *Interpreter, fr *frame, instr Instruction) {
			m := AllocMap[Str, Str]()
			args := ip.collectArgs(fr, instr.Args)
			for i := 0; i+1 < len(args); i += 2 {
				k, _ := args[i].(string)
				v := fmt.Sprintf("%v", args[i+1])
				m.Store(Str(k), Str(v))
			}
			fr.SetMapSS(instr.Dst, m)
		},
		OpMessage: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(ip.sprintf(fr, instr)))
		},
		OpSemVer: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapSS(instr.Dst, goToMapSS(parseSemVer(string(fr.Str(instr.A)))))
		},
		OpPath: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapSS(instr.Dst, goToMapSS(builtin.Path(string(fr.Str(instr.A)))))
		},
		OpDataUrl: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.DataUrl(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},
		OpShlex: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapIS(instr.Dst, indexedMap(builtin.Shlex(string(fr.Str(instr.A)))))
		},
		OpTuple: func(ip *Interpreter, fr *frame, instr Instruction) {
			args := ip.collectArgs(fr, instr.Args)
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = fmt.Sprintf("%v", a)
			}
			fr.SetMapIS(instr.Dst, indexedMap(parts))
		},
		OpFlags: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapSS(instr.Dst, goToMapSS(parseFlags(string(fr.Str(instr.A)))))
		},
		OpParseArray: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapIS(instr.Dst, indexedMap(strings.Split(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},
		OpHex2Rgb: func(ip *Interpreter, fr *frame, instr Instruction) {
			r, g, b, err := builtin.Hex2Rgb(string(fr.Str(instr.A)))
			if err != nil {
				r, g, b = 0, 0, 0
			}
			m := AllocMap[Str, Int]()
			m.Store("r", Int(r))
			m.Store("g", Int(g))
			m.Store("b", Int(b))
			fr.SetMapSI(instr.Dst, m)
		},
		OpRgb2Hex: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.Rgb2Hex(int(fr.Int(instr.A)), int(fr.Int(instr.B)), int(fr.Int(instr.C)))))
		},
		OpVariant: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, fr.Str(instr.A)+":"+fr.Str(instr.B))
		},
		OpFunc: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(ip.prog.Functions[ip.curFn].Name))
		},

		OpHttpGet: func(ip *Interpreter, fr *frame, instr Instruction) {
			status, body, err := builtin.HttpGet(string(fr.Str(instr.A)), mapToGo(fr.MapSS(instr.B)))
			if err != nil {
				ip.log.Warn().Err(err).Msg("http_get")
			}
			fr.SetMapSS(instr.Dst, goToMapSS(map[string]string{"status": status, "body": body}))
		},
		OpHttpPost: func(ip *Interpreter, fr *frame, instr Instruction) {
			status, body, err := builtin.HttpPost(string(fr.Str(instr.A)), string(fr.Str(instr.B)), mapToGo(fr.MapSS(instr.C)))
			if err != nil {
				ip.log.Warn().Err(err).Msg("http_post")
			}
			fr.SetMapSS(instr.Dst, goToMapSS(map[string]string{"status": status, "body": body}))
		},
		OpSendMail:  sendMailHandler,
		OpSmtpSend:  sendMailHandler,
		OpS3Get: func(ip *Interpreter, fr *frame, instr Instruction) {
			body, err := builtin.S3Get(string(fr.Str(instr.A)))
			if err != nil {
				ip.log.Warn().Err(err).Msg("s3_get")
			}
			fr.SetStr(instr.Dst, Str(body))
		},
		OpS3Put: func(ip *Interpreter, fr *frame, instr Instruction) {
			err := builtin.S3Put(string(fr.Str(instr.A)), string(fr.Str(instr.B)))
			fr.SetInt(instr.Dst, boolInt(err == nil))
		},

		OpKvGet: func(ip *Interpreter, fr *frame, instr Instruction) {
			v, err := builtin.KvGet(kvKey(fr, instr))
			if err != nil {
				ip.log.Warn().Err(err).Msg("kv_get")
			}
			fr.SetStr(instr.Dst, Str(v))
		},
		OpKvPut: func(ip *Interpreter, fr *frame, instr Instruction) {
			if err := builtin.KvPut(string(fr.Str(instr.A))+":"+string(fr.Str(instr.B)), string(fr.Str(instr.C))); err != nil {
				ip.log.Warn().Err(err).Msg("kv_put")
			}
		},
		OpKvDelete: func(ip *Interpreter, fr *frame, instr Instruction) {
			if err := builtin.KvDelete(kvKey(fr, instr)); err != nil {
				ip.log.Warn().Err(err).Msg("kv_delete")
			}
		},
		OpKvClear: func(ip *Interpreter, fr *frame, instr Instruction) {
			if err := builtin.KvClear(string(fr.Str(instr.A))); err != nil {
				ip.log.Warn().Err(err).Msg("kv_clear")
			}
		},
		OpPublish: func(ip *Interpreter, fr *frame, instr Instruction) {
			if err := builtin.Publish(string(fr.Str(instr.A)), string(fr.Str(instr.B))); err != nil {
				ip.log.Warn().Err(err).Msg("publish")
			}
		},

		OpLogDebug: func(ip *Interpreter, fr *frame, instr Instruction) { ip.log.Debug().Msg(string(fr.Str(instr.A))) },
		OpLogInfo:  func(ip *Interpreter, fr *frame, instr Instruction) { ip.log.Info().Msg(string(fr.Str(instr.A))) },
		OpLogWarn:  func(ip *Interpreter, fr *frame, instr Instruction) { ip.log.Warn().Msg(string(fr.Str(instr.A))) },
		OpLogError: func(ip *Interpreter, fr *frame, instr Instruction) { ip.log.Error().Msg(string(fr.Str(instr.A))) },

		OpSqliteQuery:   sqlQueryHandler(builtin.SqliteQuery),
		OpSqliteExecute: sqlExecHandler(builtin.SqliteExecute),
		OpLibsqlQuery:   sqlQueryHandler(builtin.LibsqlQuery),
		OpLibsqlExecute: sqlExecHandler(builtin.LibsqlExecute),
		OpMysqlQuery:    sqlQueryHandler(builtin.MysqlQuery),
		OpMysqlExecute:  sqlExecHandler(builtin.MysqlExecute),
		OpPgQuery:       sqlQueryHandler(builtin.PgQuery),
		OpPgExecute:     sqlExecHandler(builtin.PgExecute),

		OpBloomFilterInsert: func(ip *Interpreter, fr *frame, instr Instruction) {
			builtin.BloomFilterInsert(string(fr.Str(instr.A)), string(fr.Str(instr.B)))
		},
		OpBloomFilterContains: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetInt(instr.Dst, boolInt(builtin.BloomFilterContains(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},
		OpBloomFilterContainsWithInsert: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetInt(instr.Dst, boolInt(builtin.BloomFilterContainsWithInsert(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},

		OpFake: func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, Str(builtin.Fake(string(fr.Str(instr.A))))) },

		OpFromJson: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapSS(instr.Dst, goToMapSS(builtin.FromJson(string(fr.Str(instr.A)))))
		},
		OpToJson: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.ToJson(mapToGo(fr.MapSS(instr.A)))))
		},
		OpJsonValue: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.JsonValue(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},
		OpJsonQuery: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapIS(instr.Dst, indexedMap(builtin.JsonQuery(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},
		OpHtmlValue: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.HtmlValue(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},
		OpHtmlQuery: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapIS(instr.Dst, indexedMap(builtin.HtmlQuery(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},
		OpXmlValue: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(builtin.XmlValue(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},
		OpXmlQuery: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapIS(instr.Dst, indexedMap(builtin.XmlQuery(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},
		OpFromCsv: func(ip *Interpreter, fr *frame, instr Instruction) {
			fields, err := builtin.FromCsv(string(fr.Str(instr.A)))
			if err != nil {
				fields = nil
			}
			fr.SetMapIS(instr.Dst, indexedMap(fields))
		},
		OpToCsv: func(ip *Interpreter, fr *frame, instr Instruction) {
			m := fr.MapIS(instr.A)
			keys := m.Keys()
			sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
			fields := make([]string, 0, len(keys))
			for _, k := range keys {
				fields = append(fields, string(m.Lookup(k)))
			}
			s, err := builtin.ToCsv(fields)
			if err != nil {
				s = ""
			}
			fr.SetStr(instr.Dst, Str(s))
		},

		// OpParse has no format selector of its own -- the named structured
		// parsers (Url, Pairs, RegexParse, ...) cover every concrete format
		// spec.md's Structured-value helpers list names, so this generic
		// opcode passes its input through, the same intentional no-op
		// OpFiglet (strfuncs.go) is for "no bundled font".
		OpParse: func(ip *Interpreter, fr *frame, instr Instruction) { fr.SetStr(instr.Dst, fr.Str(instr.A)) },
		OpRegexParse: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapSS(instr.Dst, ip.regexParse(string(fr.Str(instr.A)), string(fr.Str(instr.B))))
		},
		// OpDump is the Dump* debug family collapsed to one opcode: emit
		// the value to the zerolog debug logger (gawk --dump-variables
		// style introspection, kept off stdout so it never mixes with
		// Printf/PrintAll output) and pass the value through unchanged.
		OpDump: func(ip *Interpreter, fr *frame, instr Instruction) {
			v := fr.Str(instr.A)
			ip.log.Debug().Str("value", string(v)).Msg("dump")
			fr.SetStr(instr.Dst, v)
		},

		OpReadAll: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetStr(instr.Dst, Str(readAllFile(string(fr.Str(instr.A)))))
		},
		OpWriteAll: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetInt(instr.Dst, Int(writeAllFile(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
		},
		OpReadConfig: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapSS(instr.Dst, goToMapSS(builtin.Pairs(readAllFile(string(fr.Str(instr.A))), "\n", "=")))
		},
		OpRunCmd2: func(ip *Interpreter, fr *frame, instr Instruction) {
			fr.SetMapSS(instr.Dst, runCmd2(string(fr.Str(instr.A))))
		},
	}
	return reg
}

func mapToGo(m Map[Str, Str]) map[string]string {
	out := make(map[string]string, m.Len())
	for _, k := range m.Keys() {
		out[string(k)] = string(m.Lookup(k))
	}
	return out
}

func goToMapSS(src map[string]string) Map[Str, Str] {
	out := AllocMap[Str, Str]()
	for k, v := range src {
		out.Store(Str(k), Str(v))
	}
	return out
}

func evalExprHandler(ip *Interpreter, fr *frame, instr Instruction) {
	v, err := evalArith(string(fr.Str(instr.A)))
	if err != nil {
		v = 0
	}
	fr.SetStr(instr.Dst, floatToStr(v))
}

func sendMailHandler(ip *Interpreter, fr *frame, instr Instruction) {
	args := ip.collectArgs(fr, instr.Args)
	to, subject, body := "", "", ""
	if len(args) > 0 {
		to, _ = args[0].(string)
	}
	if len(args) > 1 {
		subject, _ = args[1].(string)
	}
	if len(args) > 2 {
		body, _ = args[2].(string)
	}
	err := builtin.SendMail(string(fr.Str(instr.A)), string(fr.Str(instr.B)), strings.Split(to, ","), subject, body)
	if err != nil {
		ip.log.Warn().Err(err).Msg("send_mail")
	}
}

func sqlQueryHandler(fn func(dsn, q string) ([]map[string]string, error)) builtinFunc {
	return func(ip *Interpreter, fr *frame, instr Instruction) {
		rows, err := fn(string(fr.Str(instr.A)), string(fr.Str(instr.B)))
		if err != nil {
			ip.log.Warn().Err(err).Msg("sql query")
		}
		m := AllocMap[Int, Str]()
		for i, row := range rows {
			m.Store(Int(i+1), Str(joinRow(row)))
		}
		fr.SetMapIS(instr.Dst, m)
	}
}

func sqlExecHandler(fn func(dsn, stmt string) (int64, error)) builtinFunc {
	return func(ip *Interpreter, fr *frame, instr Instruction) {
		n, err := fn(string(fr.Str(instr.A)), string(fr.Str(instr.B)))
		if err != nil {
			ip.log.Warn().Err(err).Msg("sql exec")
		}
		fr.SetInt(instr.Dst, Int(n))
	}
}

func joinRow(row map[string]string) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+row[k])
	}
	return strings.Join(parts, ",")
}

func kvKey(fr *frame, instr Instruction) string {
	return string(fr.Str(instr.A)) + ":" + string(fr.Str(instr.B))
}

// parseMktime parses a date/time string into a unix timestamp. utc selects
// UTC interpretation of a timestamp with no explicit zone; false interprets
// it in the local zone, matching OpMktime's second operand (spec.md's
// Mktime exposes a "treat as UTC" flag rather than POSIX mktime's
// six-field struct tm, since the front-end already renders a date string
// via Strftime-compatible formatting before calling back into Mktime).
func parseMktime(s string, utc bool) Int {
	loc := time.Local
	if utc {
		loc = time.UTC
	}
	layouts := []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return Int(t.Unix())
		}
	}
	return -1
}

func parseSemVer(s string) map[string]string {
	s = strings.TrimPrefix(s, "v")
	core, pre, _ := strings.Cut(s, "-")
	parts := strings.SplitN(core, ".", 3)
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return map[string]string{"major": parts[0], "minor": parts[1], "patch": parts[2], "pre": pre}
}

func parseFlags(s string) map[string]string {
	out := map[string]string{}
	for _, tok := range strings.Fields(s) {
		tok = strings.TrimPrefix(strings.TrimPrefix(tok, "--"), "-")
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			v = "true"
		}
		out[k] = v
	}
	return out
}

// regexParse extracts named capture groups from a dynamic pattern into a
// flat string map, grounded on the shared RegexCache.
func (ip *Interpreter) regexParse(subject, pattern string) Map[Str, Str] {
	re, err := ip.regex.Compile(pattern)
	out := AllocMap[Str, Str]()
	if err != nil {
		return out
	}
	m := re.FindStringSubmatch(subject)
	if m == nil {
		return out
	}
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(m) {
			out.Store(Str(name), Str(m[i]))
		}
	}
	return out
}

// runCmd2 shells out and captures stdout, stderr, and exit code separately,
// the richer counterpart to RunCmd's bare exit-code-only contract.
func runCmd2(cmdline string) Map[Str, Str] {
	cmd := exec.Command("sh", "-c", cmdline)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	out := AllocMap[Str, Str]()
	out.Store("stdout", Str(stdout.String()))
	out.Store("stderr", Str(stderr.String()))
	out.Store("code", Str(strconv.Itoa(code)))
	return out
}

// evalArith is a minimal recursive-descent arithmetic evaluator backing
// Fend/Eval: +, -, *, /, ^, parentheses, and float literals. frawk's fend
// is a full units-aware calculator; this engine's evaluator covers the
// arithmetic core without the units database, which is out of scope here.
func evalArith(expr string) (Float, error) {
	p := &exprParser{s: strings.TrimSpace(expr)}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	return v, nil
}

type exprParser struct {
	s   string
	pos int
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) parseExpr() (Float, error) { return p.parseAddSub() }

func (p *exprParser) parseAddSub() (Float, error) {
	v, err := p.parseMulDiv()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseMulDiv()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.parseMulDiv()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseMulDiv() (Float, error) {
	v, err := p.parsePow()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parsePow()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.parsePow()
			if err != nil {
				return 0, err
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parsePow() (Float, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	if p.peek() == '^' {
		p.pos++
		rhs, err := p.parsePow()
		if err != nil {
			return 0, err
		}
		return math.Pow(v, rhs), nil
	}
	return v, nil
}

func (p *exprParser) parseUnary() (Float, error) {
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (Float, error) {
	if p.peek() == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("expected )")
		}
		p.pos++
		return v, nil
	}
	start := p.pos
	p.skipSpace()
	start = p.pos
	for p.pos < len(p.s) && (p.s[p.pos] == '.' || (p.s[p.pos] >= '0' && p.s[p.pos] <= '9')) {
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected number at %d", p.pos)
	}
	f, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	return f, err
}

func readAllFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(b)
}

func writeAllFile(path, content string) int {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return 0
	}
	return len(content)
}

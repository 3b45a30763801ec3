package engine

import "regexp"

// Opcode is one tagged operation in the bytecode ISA (spec.md 4.1). The
// ISA is large -- roughly 300 variants across constants/moves, numeric
// conversion, arithmetic, comparison, string, regex, fields, I/O, maps,
// variables/slots, control, calls, and the opaque built-in family -- so,
// per spec.md 9's design note, dispatch stays a single dense switch rather
// than threaded code or per-family interfaces.
type Opcode uint16

const (
	OpNop Opcode = iota

	// Constants and moves
	OpStoreConstInt
	OpStoreConstFloat
	OpStoreConstStr
	OpMov
	OpAllocMap

	// Numeric conversions
	OpIntToFloat
	OpFloatToInt
	OpStrToInt
	OpHexStrToInt
	OpStrToFloat
	OpIntToStr
	OpFloatToStr
	OpStrtonum
	OpMkBool
	OpToBytes
	OpFormatBytes

	// Arithmetic
	OpAddInt
	OpAddFloat
	OpMulInt
	OpMulFloat
	OpMinusInt
	OpMinusFloat
	OpModInt
	OpModFloat
	OpDiv
	OpPow
	OpNegInt
	OpNegFloat
	OpNot
	OpNotStr
	OpFloat1
	OpFloat2
	OpInt1
	OpInt2
	OpRand
	OpSrand
	OpReseedRng

	// Comparison (typed)
	OpLTInt
	OpLTFloat
	OpLTStr
	OpGTInt
	OpGTFloat
	OpGTStr
	OpLTEInt
	OpLTEFloat
	OpLTEStr
	OpGTEInt
	OpGTEFloat
	OpGTEStr
	OpEQInt
	OpEQFloat
	OpEQStr

	// String
	OpConcat
	OpSubstr
	OpCharAt
	OpChars
	OpStrlen
	OpLenStr
	OpToUpperAscii
	OpToLowerAscii
	OpPadLeft
	OpPadRight
	OpPadBoth
	OpTrim
	OpEscape
	OpEscapeCSV
	OpEscapeTSV
	OpTruncate
	OpStrCmp
	OpRepeat
	OpWords
	OpLines
	OpStartsWith
	OpStartsWithConst
	OpEndsWith
	OpTextContains
	OpQuote
	OpDoubleQuote
	OpCapitalize
	OpUnCapitalize
	OpCamelCase
	OpKebabCase
	OpSnakeCase
	OpTitleCase
	OpFiglet
	OpMask
	OpDefaultIfEmpty
	OpAppendIfMissing
	OpPrependIfMissing
	OpRemoveIfEnd
	OpRemoveIfBegin
	OpLastPart
	OpSubstrIndex
	OpSubstrLastIndex

	// Regex
	OpMatch
	OpIsMatch
	OpMatchConst
	OpIsMatchConst
	OpSub
	OpGSub
	OpGenSubDynamic
	OpSplitInt
	OpSplitStr

	// Fields
	OpGetColumn
	OpSetColumn
	OpJoinCSV
	OpJoinTSV
	OpJoinColumns
	OpUpdateUsedFields
	OpSetFI

	// I/O
	OpNextLine
	OpNextLineStdin
	OpNextLineStdinFused
	OpReadErr
	OpReadErrStdin
	OpNextFile
	OpPrintf
	OpPrintAll
	OpSprintf
	OpClose
	OpRunCmd
	OpRunCmd2
	OpExit
	OpReadAll
	OpWriteAll
	OpReadConfig

	// Maps
	OpLookup
	OpContains
	OpDelete
	OpClear
	OpLen
	OpStore
	OpIncInt
	OpIncFloat
	OpIterBegin
	OpIterHasNext
	OpIterGetNext
	OpMapAsort
	OpMapJoin
	OpMapMax
	OpMapMin
	OpMapSum
	OpMapMean
	OpUniq
	OpSeq

	// Variables and slots
	OpLoadVarStr
	OpStoreVarStr
	OpLoadVarInt
	OpStoreVarInt
	OpLoadVarIntMap
	OpStoreVarIntMap
	OpLoadVarStrMap
	OpLoadVarStrStrMap
	OpStoreVarStrMap
	OpStoreVarStrStrMap
	OpLoadSlot
	OpStoreSlot

	// Control
	OpJmp
	OpJmpIf

	// Calls
	OpPush
	OpPop
	OpCall
	OpRet

	// Built-ins: identifiers, crypto, structured data, date/time, network,
	// SQL, logging, misc. Each carries a fixed operand signature; the
	// engine treats the implementation as opaque beyond that signature
	// (spec.md 1, 4.1).
	OpUuid
	OpSnowFlake
	OpUlid
	OpTsid
	OpLocalIp
	OpWhoami
	OpVersion
	OpOs
	OpOsFamily
	OpArch
	OpPwd
	OpUserHome
	OpGetEnv
	OpStrftime
	OpMktime
	OpDuration
	OpSystime
	OpDateTime
	OpEncode
	OpDecode
	OpDigest
	OpHmac
	OpJwt
	OpDejwt
	OpEncrypt
	OpDecrypt
	OpMkPassword
	OpFend
	OpEval
	OpMapStrIntEval
	OpMapStrFloatEval
	OpMapStrStrEval
	OpMin
	OpMax
	OpUrl
	OpPairs
	OpRecord
	OpMessage
	OpSemVer
	OpPath
	OpDataUrl
	OpShlex
	OpTuple
	OpFlags
	OpParseArray
	OpHex2Rgb
	OpRgb2Hex
	OpVariant
	OpFunc
	OpTypeOfArray
	OpTypeOfNumber
	OpTypeOfString
	OpTypeOfUnassigned
	OpIsArrayTrue
	OpIsArrayFalse
	OpIsIntTrue
	OpIsIntFalse
	OpIsStrInt
	OpIsNumTrue
	OpIsNumFalse
	OpIsStrNum
	OpIsFormat
	OpHttpGet
	OpHttpPost
	OpSendMail
	OpSmtpSend
	OpS3Get
	OpS3Put
	OpKvGet
	OpKvPut
	OpKvDelete
	OpKvClear
	OpPublish
	OpLogDebug
	OpLogInfo
	OpLogWarn
	OpLogError
	OpSqliteQuery
	OpSqliteExecute
	OpLibsqlQuery
	OpLibsqlExecute
	OpMysqlQuery
	OpMysqlExecute
	OpPgQuery
	OpPgExecute
	OpBloomFilterInsert
	OpBloomFilterContains
	OpBloomFilterContainsWithInsert
	OpFake
	OpFromJson
	OpToJson
	OpJsonValue
	OpJsonQuery
	OpHtmlValue
	OpHtmlQuery
	OpXmlValue
	OpXmlQuery
	OpFromCsv
	OpToCsv
	OpParse
	OpRegexParse
	OpDump

	opcodeCount
)

var opcodeNames = [opcodeCount]string{}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) && opcodeNames[o] != "" {
		return opcodeNames[o]
	}
	return "?opcode?"
}

func init() {
	// Names mirror the constant identifiers with the Op prefix stripped,
	// used for diagnostics (Op.String, FaultError messages); internal/asm
	// keeps its own mnemonic table for the textual assembler, the same way the teacher's instrToStrMap exists only
	// to support String() and the textual assembler.
	names := map[Opcode]string{
		OpNop: "nop", OpStoreConstInt: "store_const_int", OpStoreConstFloat: "store_const_float",
		OpStoreConstStr: "store_const_str", OpMov: "mov", OpAllocMap: "alloc_map",
		OpIntToFloat: "int_to_float", OpFloatToInt: "float_to_int", OpStrToInt: "str_to_int",
		OpHexStrToInt: "hex_str_to_int", OpStrToFloat: "str_to_float", OpIntToStr: "int_to_str",
		OpFloatToStr: "float_to_str", OpStrtonum: "strtonum", OpMkBool: "mk_bool",
		OpToBytes: "to_bytes", OpFormatBytes: "format_bytes",
		OpAddInt: "add_int", OpAddFloat: "add_float", OpMulInt: "mul_int", OpMulFloat: "mul_float",
		OpMinusInt: "minus_int", OpMinusFloat: "minus_float", OpModInt: "mod_int", OpModFloat: "mod_float",
		OpDiv: "div", OpPow: "pow", OpNegInt: "neg_int", OpNegFloat: "neg_float", OpNot: "not",
		OpNotStr: "not_str", OpFloat1: "float1", OpFloat2: "float2", OpInt1: "int1", OpInt2: "int2",
		OpRand: "rand", OpSrand: "srand", OpReseedRng: "reseed_rng",
		OpLTInt: "lt_int", OpLTFloat: "lt_float", OpLTStr: "lt_str",
		OpGTInt: "gt_int", OpGTFloat: "gt_float", OpGTStr: "gt_str",
		OpLTEInt: "lte_int", OpLTEFloat: "lte_float", OpLTEStr: "lte_str",
		OpGTEInt: "gte_int", OpGTEFloat: "gte_float", OpGTEStr: "gte_str",
		OpEQInt: "eq_int", OpEQFloat: "eq_float", OpEQStr: "eq_str",
		OpConcat: "concat", OpSubstr: "substr", OpCharAt: "char_at", OpChars: "chars",
		OpStrlen: "strlen", OpLenStr: "len_str", OpToUpperAscii: "to_upper_ascii",
		OpToLowerAscii: "to_lower_ascii", OpPadLeft: "pad_left", OpPadRight: "pad_right",
		OpPadBoth: "pad_both", OpTrim: "trim", OpEscape: "escape", OpEscapeCSV: "escape_csv",
		OpEscapeTSV: "escape_tsv", OpTruncate: "truncate", OpStrCmp: "strcmp", OpRepeat: "repeat",
		OpWords: "words", OpLines: "lines", OpStartsWith: "starts_with",
		OpStartsWithConst: "starts_with_const", OpEndsWith: "ends_with", OpTextContains: "text_contains",
		OpQuote: "quote", OpDoubleQuote: "double_quote", OpCapitalize: "capitalize",
		OpUnCapitalize: "un_capitalize", OpCamelCase: "camel_case", OpKebabCase: "kebab_case",
		OpSnakeCase: "snake_case", OpTitleCase: "title_case", OpFiglet: "figlet", OpMask: "mask",
		OpDefaultIfEmpty: "default_if_empty", OpAppendIfMissing: "append_if_missing",
		OpPrependIfMissing: "prepend_if_missing", OpRemoveIfEnd: "remove_if_end",
		OpRemoveIfBegin: "remove_if_begin", OpLastPart: "last_part", OpSubstrIndex: "substr_index",
		OpSubstrLastIndex: "substr_last_index",
		OpMatch: "match", OpIsMatch: "is_match", OpMatchConst: "match_const",
		OpIsMatchConst: "is_match_const", OpSub: "sub", OpGSub: "gsub", OpGenSubDynamic: "gensub",
		OpSplitInt: "split_int", OpSplitStr: "split_str",
		OpGetColumn: "get_column", OpSetColumn: "set_column", OpJoinCSV: "join_csv",
		OpJoinTSV: "join_tsv", OpJoinColumns: "join_columns", OpUpdateUsedFields: "update_used_fields",
		OpSetFI: "set_fi",
		OpNextLine: "next_line", OpNextLineStdin: "next_line_stdin",
		OpNextLineStdinFused: "next_line_stdin_fused", OpReadErr: "read_err",
		OpReadErrStdin: "read_err_stdin", OpNextFile: "next_file", OpPrintf: "printf",
		OpPrintAll: "print_all", OpSprintf: "sprintf", OpClose: "close", OpRunCmd: "run_cmd",
		OpRunCmd2: "run_cmd2", OpExit: "exit", OpReadAll: "read_all", OpWriteAll: "write_all",
		OpReadConfig: "read_config",
		OpLookup: "lookup", OpContains: "contains", OpDelete: "delete", OpClear: "clear",
		OpLen: "len", OpStore: "store", OpIncInt: "inc_int", OpIncFloat: "inc_float",
		OpIterBegin: "iter_begin", OpIterHasNext: "iter_has_next", OpIterGetNext: "iter_get_next",
		OpMapAsort: "map_asort", OpMapJoin: "map_join", OpMapMax: "map_max", OpMapMin: "map_min",
		OpMapSum: "map_sum", OpMapMean: "map_mean", OpUniq: "uniq", OpSeq: "seq",
		OpLoadVarStr: "load_var_str", OpStoreVarStr: "store_var_str", OpLoadVarInt: "load_var_int",
		OpStoreVarInt: "store_var_int", OpLoadVarIntMap: "load_var_int_map",
		OpStoreVarIntMap: "store_var_int_map", OpLoadVarStrMap: "load_var_str_map",
		OpLoadVarStrStrMap: "load_var_str_str_map", OpStoreVarStrMap: "store_var_str_map",
		OpStoreVarStrStrMap: "store_var_str_str_map", OpLoadSlot: "load_slot", OpStoreSlot: "store_slot",
		OpJmp: "jmp", OpJmpIf: "jmp_if",
		OpPush: "push", OpPop: "pop", OpCall: "call", OpRet: "ret",
		OpUuid: "uuid", OpSnowFlake: "snowflake", OpUlid: "ulid", OpTsid: "tsid",
		OpLocalIp: "local_ip", OpWhoami: "whoami", OpVersion: "version", OpOs: "os",
		OpOsFamily: "os_family", OpArch: "arch", OpPwd: "pwd", OpUserHome: "user_home",
		OpGetEnv: "get_env", OpStrftime: "strftime", OpMktime: "mktime", OpDuration: "duration",
		OpSystime: "systime", OpDateTime: "date_time", OpEncode: "encode", OpDecode: "decode",
		OpDigest: "digest", OpHmac: "hmac", OpJwt: "jwt", OpDejwt: "dejwt", OpEncrypt: "encrypt",
		OpDecrypt: "decrypt", OpMkPassword: "mk_password", OpFend: "fend", OpEval: "eval",
		OpMapStrIntEval: "map_str_int_eval", OpMapStrFloatEval: "map_str_float_eval",
		OpMapStrStrEval: "map_str_str_eval", OpMin: "min", OpMax: "max", OpUrl: "url",
		OpPairs: "pairs", OpRecord: "record", OpMessage: "message", OpSemVer: "semver",
		OpPath: "path", OpDataUrl: "data_url", OpShlex: "shlex", OpTuple: "tuple", OpFlags: "flags",
		OpParseArray: "parse_array", OpHex2Rgb: "hex2rgb", OpRgb2Hex: "rgb2hex", OpVariant: "variant",
		OpFunc: "func", OpTypeOfArray: "typeof_array", OpTypeOfNumber: "typeof_number",
		OpTypeOfString: "typeof_string", OpTypeOfUnassigned: "typeof_unassigned",
		OpIsArrayTrue: "is_array_true", OpIsArrayFalse: "is_array_false", OpIsIntTrue: "is_int_true",
		OpIsIntFalse: "is_int_false", OpIsStrInt: "is_str_int", OpIsNumTrue: "is_num_true",
		OpIsNumFalse: "is_num_false", OpIsStrNum: "is_str_num", OpIsFormat: "is_format",
		OpHttpGet: "http_get", OpHttpPost: "http_post", OpSendMail: "send_mail",
		OpSmtpSend: "smtp_send", OpS3Get: "s3_get", OpS3Put: "s3_put", OpKvGet: "kv_get",
		OpKvPut: "kv_put", OpKvDelete: "kv_delete", OpKvClear: "kv_clear", OpPublish: "publish",
		OpLogDebug: "log_debug", OpLogInfo: "log_info", OpLogWarn: "log_warn", OpLogError: "log_error",
		OpSqliteQuery: "sqlite_query", OpSqliteExecute: "sqlite_execute",
		OpLibsqlQuery: "libsql_query", OpLibsqlExecute: "libsql_execute",
		OpMysqlQuery: "mysql_query", OpMysqlExecute: "mysql_execute",
		OpPgQuery: "pg_query", OpPgExecute: "pg_execute",
		OpBloomFilterInsert: "bloom_insert", OpBloomFilterContains: "bloom_contains",
		OpBloomFilterContainsWithInsert: "bloom_contains_with_insert", OpFake: "fake",
		OpFromJson: "from_json", OpToJson: "to_json", OpJsonValue: "json_value",
		OpJsonQuery: "json_query", OpHtmlValue: "html_value", OpHtmlQuery: "html_query",
		OpXmlValue: "xml_value", OpXmlQuery: "xml_query", OpFromCsv: "from_csv", OpToCsv: "to_csv",
		OpParse: "parse", OpRegexParse: "regex_parse", OpDump: "dump",
	}
	for op, name := range names {
		opcodeNames[op] = name
	}
}

// FloatFunc/Bitwise select the unary/binary math or bitwise family a
// Float1/Float2/Int1/Int2 instruction performs, per spec.md 4.1.
type FloatFunc byte

const (
	FFSqrt FloatFunc = iota
	FFSin
	FFCos
	FFLog
	FFLog2
	FFLog10
	FFExp
	FFAtan
	FFAtan2
	FFFmod
	FFHypot
)

type Bitwise byte

const (
	BitAnd Bitwise = iota
	BitOr
	BitXor
	BitComplement
	BitShl
	BitShr
)

// Arg is one (register, type) pair in a variadic instruction's argument
// list (Printf/Sprintf/PrintAll format arguments).
type Arg struct {
	Reg RegID
	Ty  Ty
}

// OutputSpec names the optional output channel a Printf/PrintAll targets:
// a path register plus the file mode to open it with. A nil spec means
// "write to the implicit default writer" (stdout).
type OutputSpec struct {
	PathReg RegID
	Mode    WriteMode
}

// Instruction is one bytecode operation. Every variant carries its
// destination and source register IDs plus any embedded immediates,
// matching spec.md 4.1's description of the instruction set as "a tagged
// union; each variant carries its destination and source register IDs
// plus any embedded immediates". Rather than a Go union (which the
// language doesn't have), operand slots are named generically (Dst, A, B,
// C) and each opcode's exec case in interp.go documents which it uses --
// the same flattened-struct-of-opcode approach the teacher's single
// `instr{code Bytecode; arg uint32}` takes, widened because this ISA's
// operands don't fit in one word.
type Instruction struct {
	Op Opcode

	Ty    Ty // primary type tag (numeric variant, map flavor, var kind)
	MapTy Ty // secondary type tag for instructions needing both a map's
	         // key type (via Ty) and its value type (via MapTy), e.g. Lookup

	Dst, A, B, C RegID

	ImmInt   Int
	ImmFloat Float
	ImmStr   string
	ImmInt2  Int // second integer immediate, e.g. IncInt's `by` is a
	             // register in frawk but this engine also allows folding
	             // small constant increments without a StoreConstInt

	Label Label
	Func  int

	Var Variable

	FloatFn FloatFunc
	BitOp   Bitwise

	// ConstRegex holds the precompiled pattern for MatchConst/IsMatchConst,
	// resolved once when the assembler builds the instruction rather than
	// looked up through RegexCache on every execution (spec.md 3 invariant
	// 5: "Regex-constant opcodes observe a compiled regex that is never
	// mutated").
	ConstRegex *regexp.Regexp

	Args   []Arg
	Output *OutputSpec
}

// Label is an index into a function's instruction sequence.
type Label int

// Variable names a special AWK variable LoadVarX/StoreVarX can access.
type Variable byte

const (
	VarFS Variable = iota
	VarOFS
	VarORS
	VarRS
	VarNF
	VarNR
	VarFNR
	VarFILENAME
	VarSUBSEP
	VarRSTART
	VarRLENGTH
	VarFI
	VarARGC
	VarENVIRON
	VarARGV
)

// Function is an ordered sequence of instructions plus the per-type
// register counts it needs, per spec.md 4.1.
type Function struct {
	Name       string
	Instrs     []Instruction
	Registers  RegCounts
	NumParams  int
}

// Program is an ordered list of functions; function 0 is the entry, per
// spec.md 4.1 and 6. String constants are interned directly into each
// StoreConstStr's ImmStr and regex constants into each MatchConst/
// IsMatchConst's ConstRegex at assembly time (spec.md 6's "frozen constant
// tables" collapse to per-instruction fields here rather than a separate
// indexed table, since this engine has no separate bytecode serialization
// format to deduplicate against).
type Program struct {
	Functions []*Function
	Entry     int
}

// Accumulate implements the per-instruction register-accumulation walk
// spec.md 4.1 describes: for instr, call f once per (register-id,
// type-tag) pair it reads or writes. This underlies liveness analysis at
// the IR stage (out of scope here); nothing in this module calls it.
// Opcodes with no opInfo entry yield no pairs.
func (instr Instruction) Accumulate(f func(id RegID, ty Ty)) {
	visit := func(id RegID, ty Ty) {
		if id != UNUSED {
			f(id, ty)
		}
	}
	info, ok := opInfo[instr.Op]
	if !ok {
		return
	}
	if info.dst != tyNone {
		visit(instr.Dst, info.dst)
	}
	if info.a != tyNone {
		visit(instr.A, info.a)
	}
	if info.b != tyNone {
		visit(instr.B, info.b)
	}
	if info.c != tyNone {
		visit(instr.C, info.c)
	}
	if info.variadic {
		for _, a := range instr.Args {
			visit(a.Reg, a.Ty)
		}
	}
}

const tyNone Ty = 255

type opShape struct {
	dst, a, b, c Ty
	variadic     bool
}

// opInfo records, for Accumulate, the operand shape of the opcodes
// registered below. It is not exhaustive: opcodes with no entry (among
// them Mov, AllocMap, the map and iterator family, Push/Pop, the variable
// and slot loads/stores, SplitInt/SplitStr and most built-ins) are not
// walked. Building it as one table (like the teacher's
// strToInstrMap/instrToStrMap pair) keeps the single visitor hook of
// spec.md 4.1 in one place instead of scattered across a few hundred
// switch arms.
var opInfo map[Opcode]opShape

func init() {
	opInfo = make(map[Opcode]opShape, opcodeCount)
	reg := func(op Opcode, shape opShape) { opInfo[op] = shape }
	n := tyNone

	reg(OpStoreConstInt, opShape{TyInt, n, n, n, false})
	reg(OpStoreConstFloat, opShape{TyFloat, n, n, n, false})
	reg(OpStoreConstStr, opShape{TyStr, n, n, n, false})
	// Mov/AllocMap operate over a caller-chosen Ty stored in instr.Ty; both
	// operand slots share that type.
	reg(OpIntToFloat, opShape{TyFloat, TyInt, n, n, false})
	reg(OpFloatToInt, opShape{TyInt, TyFloat, n, n, false})
	reg(OpStrToInt, opShape{TyInt, TyStr, n, n, false})
	reg(OpHexStrToInt, opShape{TyInt, TyStr, n, n, false})
	reg(OpStrToFloat, opShape{TyFloat, TyStr, n, n, false})
	reg(OpIntToStr, opShape{TyStr, TyInt, n, n, false})
	reg(OpFloatToStr, opShape{TyStr, TyFloat, n, n, false})

	for _, op := range []Opcode{OpAddInt, OpMulInt, OpMinusInt, OpModInt} {
		reg(op, opShape{TyInt, TyInt, TyInt, n, false})
	}
	for _, op := range []Opcode{OpAddFloat, OpMulFloat, OpMinusFloat, OpModFloat, OpDiv, OpPow, OpFloat2} {
		reg(op, opShape{TyFloat, TyFloat, TyFloat, n, false})
	}
	reg(OpNegInt, opShape{TyInt, TyInt, n, n, false})
	reg(OpNegFloat, opShape{TyFloat, TyFloat, n, n, false})
	reg(OpNot, opShape{TyInt, TyInt, n, n, false})
	reg(OpNotStr, opShape{TyInt, TyStr, n, n, false})
	reg(OpFloat1, opShape{TyFloat, TyFloat, n, n, false})
	reg(OpInt1, opShape{TyInt, TyInt, n, n, false})
	reg(OpInt2, opShape{TyInt, TyInt, TyInt, n, false})
	reg(OpRand, opShape{TyFloat, n, n, n, false})
	reg(OpSrand, opShape{TyInt, TyInt, n, n, false})

	for _, op := range []Opcode{OpLTInt, OpGTInt, OpLTEInt, OpGTEInt, OpEQInt} {
		reg(op, opShape{TyInt, TyInt, TyInt, n, false})
	}
	for _, op := range []Opcode{OpLTFloat, OpGTFloat, OpLTEFloat, OpGTEFloat, OpEQFloat} {
		reg(op, opShape{TyInt, TyFloat, TyFloat, n, false})
	}
	for _, op := range []Opcode{OpLTStr, OpGTStr, OpLTEStr, OpGTEStr, OpEQStr} {
		reg(op, opShape{TyInt, TyStr, TyStr, n, false})
	}

	reg(OpConcat, opShape{TyStr, TyStr, TyStr, n, false})
	reg(OpSubstr, opShape{TyStr, TyStr, TyInt, TyInt, false})
	reg(OpCharAt, opShape{TyStr, TyStr, TyInt, n, false})
	reg(OpChars, opShape{TyMapIntStr, TyStr, n, n, false})
	reg(OpStrlen, opShape{TyInt, TyStr, n, n, false})
	reg(OpLenStr, opShape{TyInt, TyStr, n, n, false})
	for _, op := range []Opcode{
		OpToUpperAscii, OpToLowerAscii, OpEscape, OpEscapeCSV, OpEscapeTSV, OpCapitalize,
		OpUnCapitalize, OpCamelCase, OpKebabCase, OpSnakeCase, OpTitleCase, OpFiglet, OpMask,
		OpQuote, OpDoubleQuote,
	} {
		reg(op, opShape{TyStr, TyStr, n, n, false})
	}
	for _, op := range []Opcode{OpPadLeft, OpPadRight, OpPadBoth, OpTruncate} {
		reg(op, opShape{TyStr, TyStr, TyInt, TyStr, false})
	}
	reg(OpTrim, opShape{TyStr, TyStr, TyStr, n, false})
	reg(OpStrCmp, opShape{TyInt, TyStr, TyStr, n, false})
	reg(OpRepeat, opShape{TyStr, TyStr, TyInt, n, false})
	reg(OpWords, opShape{TyMapIntStr, TyStr, n, n, false})
	reg(OpLines, opShape{TyMapIntStr, TyStr, n, n, false})
	for _, op := range []Opcode{OpStartsWith, OpEndsWith, OpTextContains} {
		reg(op, opShape{TyInt, TyStr, TyStr, n, false})
	}
	reg(OpStartsWithConst, opShape{TyInt, TyStr, n, n, false})
	for _, op := range []Opcode{
		OpDefaultIfEmpty, OpAppendIfMissing, OpPrependIfMissing, OpRemoveIfEnd, OpRemoveIfBegin,
		OpLastPart, OpSubstrIndex, OpSubstrLastIndex,
	} {
		reg(op, opShape{TyStr, TyStr, TyStr, n, false})
	}

	reg(OpMatch, opShape{TyInt, TyStr, TyStr, n, false})
	reg(OpIsMatch, opShape{TyInt, TyStr, TyStr, n, false})
	reg(OpMatchConst, opShape{TyInt, TyStr, n, n, false})
	reg(OpIsMatchConst, opShape{TyInt, TyStr, n, n, false})
	reg(OpSub, opShape{TyInt, TyStr, TyStr, n, false})
	reg(OpGSub, opShape{TyInt, TyStr, TyStr, n, false})
	reg(OpGenSubDynamic, opShape{TyStr, TyStr, TyStr, TyStr, false})

	reg(OpGetColumn, opShape{TyStr, TyInt, n, n, false})
	reg(OpSetColumn, opShape{n, TyInt, TyStr, n, false})
	reg(OpJoinCSV, opShape{TyStr, TyInt, TyInt, n, false})
	reg(OpJoinTSV, opShape{TyStr, TyInt, TyInt, n, false})
	reg(OpJoinColumns, opShape{TyStr, TyInt, TyInt, TyStr, false})

	reg(OpNextLine, opShape{TyStr, TyStr, n, n, false})
	reg(OpNextLineStdin, opShape{TyStr, n, n, n, false})
	reg(OpReadErr, opShape{TyInt, TyStr, n, n, false})
	reg(OpReadErrStdin, opShape{TyInt, n, n, n, false})
	reg(OpSprintf, opShape{TyStr, TyStr, n, n, true})
	reg(OpPrintf, opShape{n, TyStr, n, n, true})
	reg(OpPrintAll, opShape{n, n, n, n, true})
	reg(OpClose, opShape{n, TyStr, n, n, false})
	reg(OpRunCmd, opShape{TyInt, TyStr, n, n, false})
	reg(OpRunCmd2, opShape{TyMapStrStr, TyStr, n, n, false})
	reg(OpExit, opShape{n, TyInt, n, n, false})

	reg(OpJmpIf, opShape{n, TyInt, n, n, false})

	reg(OpTypeOfArray, opShape{TyStr, n, n, n, false})
	reg(OpTypeOfNumber, opShape{TyStr, n, n, n, false})
	reg(OpTypeOfString, opShape{TyStr, n, n, n, false})
	reg(OpTypeOfUnassigned, opShape{TyStr, n, n, n, false})
	reg(OpIsStrInt, opShape{TyInt, TyStr, n, n, false})
	reg(OpIsStrNum, opShape{TyInt, TyStr, n, n, false})
	reg(OpIsFormat, opShape{TyInt, TyStr, TyStr, n, false})

	reg(OpDigest, opShape{TyStr, TyStr, TyStr, n, false})
	reg(OpHmac, opShape{TyStr, TyStr, TyStr, TyStr, false})
	reg(OpUuid, opShape{TyStr, TyStr, n, n, false})
	reg(OpSnowFlake, opShape{TyInt, TyInt, n, n, false})
	reg(OpUlid, opShape{TyStr, n, n, n, false})
	reg(OpTsid, opShape{TyStr, n, n, n, false})
	reg(OpSystime, opShape{TyInt, n, n, n, false})
	reg(OpStrftime, opShape{TyStr, TyStr, TyInt, n, false})
	reg(OpMktime, opShape{TyInt, TyStr, TyInt, n, false})
	reg(OpDuration, opShape{TyInt, TyStr, n, n, false})
	reg(OpMin, opShape{TyStr, TyStr, TyStr, TyStr, false})
	reg(OpMax, opShape{TyStr, TyStr, TyStr, TyStr, false})

	reg(OpFromJson, opShape{TyMapStrStr, TyStr, n, n, false})
	reg(OpJsonValue, opShape{TyStr, TyStr, TyStr, n, false})
	reg(OpJsonQuery, opShape{TyMapIntStr, TyStr, TyStr, n, false})
	reg(OpHtmlValue, opShape{TyStr, TyStr, TyStr, n, false})
	reg(OpHtmlQuery, opShape{TyMapIntStr, TyStr, TyStr, n, false})
	reg(OpXmlValue, opShape{TyStr, TyStr, TyStr, n, false})
	reg(OpXmlQuery, opShape{TyMapIntStr, TyStr, TyStr, n, false})
	reg(OpFromCsv, opShape{TyMapIntStr, TyStr, n, n, false})

	reg(OpHttpGet, opShape{TyMapStrStr, TyStr, TyMapStrStr, n, false})
	reg(OpHttpPost, opShape{TyMapStrStr, TyStr, TyStr, TyMapStrStr, false})
	reg(OpKvGet, opShape{TyStr, TyStr, TyStr, n, false})
	reg(OpKvPut, opShape{n, TyStr, TyStr, TyStr, false})
	reg(OpKvDelete, opShape{n, TyStr, TyStr, n, false})
	reg(OpKvClear, opShape{n, TyStr, n, n, false})
	reg(OpPublish, opShape{n, TyStr, TyStr, n, false})

	reg(OpLogDebug, opShape{n, TyStr, n, n, false})
	reg(OpLogInfo, opShape{n, TyStr, n, n, false})
	reg(OpLogWarn, opShape{n, TyStr, n, n, false})
	reg(OpLogError, opShape{n, TyStr, n, n, false})
}

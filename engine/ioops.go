package engine

import (
	"fmt"
	"os/exec"
	"strings"
)

// collectArgs gathers a variadic instruction's operand list as plain Go
// values keyed by each Arg's declared Ty, for handoff to fmt.Sprintf or
// OFS-joined printing.
func (ip *Interpreter) collectArgs(fr *frame, args []Arg) []any {
	out := make([]any, 0, len(args))
	for _, a := range args {
		switch a.Ty {
		case TyInt:
			out = append(out, fr.Int(a.Reg))
		case TyFloat:
			out = append(out, fr.Float(a.Reg))
		case TyStr:
			out = append(out, string(fr.Str(a.Reg)))
		}
	}
	return out
}

func (ip *Interpreter) resolveOutput(fr *frame, spec *OutputSpec) *Writer {
	if spec == nil {
		return ip.writers.Stdout()
	}
	w, err := ip.writers.Open(string(fr.Str(spec.PathReg)), spec.Mode)
	if err != nil {
		ip.log.Error().Err(err).Msg("open output writer")
		return ip.writers.Stdout()
	}
	return w
}

// execPrintf implements Printf(fmt, args...) -> Output, per spec.md 4.6.
func (ip *Interpreter) execPrintf(fr *frame, instr Instruction) {
	s := ip.sprintf(fr, instr)
	w := ip.resolveOutput(fr, instr.Output)
	_, _ = w.Write([]byte(s))
}

// sprintf formats instr's format register and variadic args, shared by
// Printf and Sprintf.
func (ip *Interpreter) sprintf(fr *frame, instr Instruction) string {
	format := string(fr.Str(instr.A))
	args := ip.collectArgs(fr, instr.Args)
	return fmt.Sprintf(format, args...)
}

// execPrintAll implements PrintAll(args...) -> Output, AWK's bare `print`
// statement: operands joined by OFS and terminated by ORS.
func (ip *Interpreter) execPrintAll(fr *frame, instr Instruction) {
	parts := make([]string, 0, len(instr.Args))
	for _, a := range instr.Args {
		switch a.Ty {
		case TyInt:
			parts = append(parts, string(intToStr(fr.Int(a.Reg))))
		case TyFloat:
			parts = append(parts, string(floatToStr(fr.Float(a.Reg))))
		case TyStr:
			parts = append(parts, string(fr.Str(a.Reg)))
		}
	}
	line := strings.Join(parts, ip.vars.ofsText) + ip.vars.ors
	w := ip.resolveOutput(fr, instr.Output)
	_, _ = w.Write([]byte(line))
}

// runCmd implements RunCmd: shell out and return the exit code, per
// spec.md's Supplemented Features (original_source run_cmd/run_cmd2).
func (ip *Interpreter) runCmd(cmdline string) int {
	cmd := exec.Command("sh", "-c", cmdline)
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		return -1
	}
	return 0
}

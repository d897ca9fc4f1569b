// Package csource renders packed langid tables as a C translation unit and
// its matching header.
package csource

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/samcharles93/ldc/pkg/langid"
)

const flushThreshold = 64 << 10

// emitter accumulates output in buf and flushes it to w in large chunks.
// The first write error sticks.
type emitter struct {
	w   io.Writer
	buf []byte
	err error
}

func newEmitter(w io.Writer) *emitter {
	return &emitter{
		w:   w,
		buf: make([]byte, 0, 2*flushThreshold),
	}
}

func (e *emitter) maybeFlush() {
	if len(e.buf) < flushThreshold {
		return
	}
	if e.err == nil {
		_, e.err = e.w.Write(e.buf)
	}
	e.buf = e.buf[:0]
}

func (e *emitter) printf(format string, args ...any) {
	e.buf = fmt.Appendf(e.buf, format, args...)
	e.maybeFlush()
}

func (e *emitter) uints(decl string, vals []uint32) {
	e.buf = append(e.buf, decl...)
	e.buf = append(e.buf, " = {"...)
	for i, v := range vals {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.buf = strconv.AppendUint(e.buf, uint64(v), 10)
		e.maybeFlush()
	}
	if len(vals) == 0 {
		// C rejects an empty initializer for an unsized array.
		e.buf = append(e.buf, '0')
	}
	e.buf = append(e.buf, "};\n"...)
}

func (e *emitter) doubles(decl string, vals []float64) {
	e.buf = append(e.buf, decl...)
	e.buf = append(e.buf, " = {"...)
	for i, v := range vals {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.buf = appendDouble(e.buf, v)
		e.maybeFlush()
	}
	e.buf = append(e.buf, "};\n"...)
}

func (e *emitter) strings(decl string, vals []string) {
	e.buf = append(e.buf, decl...)
	e.buf = append(e.buf, " = {"...)
	for i, v := range vals {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.buf = AppendString(e.buf, v)
	}
	e.buf = append(e.buf, "};\n"...)
	e.maybeFlush()
}

func (e *emitter) close() error {
	if e.err != nil {
		return e.err
	}
	_, err := e.w.Write(e.buf)
	return err
}

func (e *emitter) sizeDefines(s langid.Sizes) {
	e.printf("#define NUM_FEATS %d\n", s.NumFeats)
	e.printf("#define NUM_LANGS %d\n", s.NumLangs)
	e.printf("#define NUM_STATES %d\n", s.NumStates)
}

// Source writes t as a C translation unit in the given style. Doubles are
// rendered with full round-trip precision. Non-finite parameters are
// rejected with langid.ErrNonFinite before anything is written.
func Source(w io.Writer, t *langid.Tables, opts Options) error {
	if err := ValidateHeaderName(opts.HeaderName); err != nil {
		return err
	}
	if err := checkFinite("nb_pc", t.NbPC); err != nil {
		return err
	}
	if err := checkFinite("nb_ptc", t.NbPTC); err != nil {
		return err
	}
	e := newEmitter(w)
	q := opts.Style.qualifier()

	switch opts.Style {
	case StyleMacro:
		e.printf("#include \"%s\"\n\n", opts.headerName())
	case StyleConst:
		e.sizeDefines(t.Sizes)
		e.printf("\n")
	default:
		return fmt.Errorf("csource: unsupported style %v", opts.Style)
	}

	e.uints(q+"unsigned tk_nextmove[NUM_STATES][256]", t.TkNextmove)
	e.uints(q+"unsigned tk_output_c[NUM_STATES]", t.TkOutputC)
	e.uints(q+"unsigned tk_output_s[NUM_STATES]", t.TkOutputS)
	e.uints(q+"unsigned tk_output[]", t.TkOutput)
	e.doubles(q+"double nb_pc[NUM_LANGS]", t.NbPC)
	e.doubles(q+"double nb_ptc"+opts.Style.ptcDims(t.PTCSize()), t.NbPTC)
	e.strings(q+"char *nb_classes[NUM_LANGS]", t.NbClasses)

	return e.close()
}

// Header writes the extern declarations matching a Source call made with
// the same sizes and options.
func Header(w io.Writer, sizes langid.Sizes, opts Options) error {
	if opts.Style != StyleMacro && opts.Style != StyleConst {
		return fmt.Errorf("csource: unsupported style %v", opts.Style)
	}
	if err := ValidateHeaderName(opts.HeaderName); err != nil {
		return err
	}
	e := newEmitter(w)
	q := "extern " + opts.Style.qualifier()
	guard := Guard(opts.headerName())

	e.printf("#ifndef %s\n#define %s\n\n", guard, guard)
	e.sizeDefines(sizes)
	e.printf("\n")
	e.printf("%sunsigned tk_nextmove[NUM_STATES][256];\n", q)
	e.printf("%sunsigned tk_output_c[NUM_STATES];\n", q)
	e.printf("%sunsigned tk_output_s[NUM_STATES];\n", q)
	e.printf("%sunsigned tk_output[];\n", q)
	e.printf("%sdouble nb_pc[NUM_LANGS];\n", q)
	e.printf("%sdouble nb_ptc%s;\n", q, opts.Style.ptcDims(sizes.PTCSize()))
	e.printf("%schar *nb_classes[NUM_LANGS];\n", q)
	e.printf("\n#endif\n")

	return e.close()
}

func checkFinite(name string, vals []float64) error {
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s[%d]: %w: %v has no C literal", name, i, langid.ErrNonFinite, v)
		}
	}
	return nil
}

package compile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/samcharles93/ldc/internal/csource"
	"github.com/samcharles93/ldc/pkg/langid"
)

func fixtureModel() *langid.Model {
	next := make([]uint32, 2*langid.Alphabet)
	for i := range next {
		next[i] = uint32(i % 2)
	}
	return &langid.Model{
		NumFeats:   3,
		NumLangs:   2,
		TkNextmove: next,
		TkOutput:   map[uint32][]uint32{0: {1, 2}, 1: {}},
		NbPC:       []float64{-0.6931471805599453, -0.6931471805599453},
		NbPTC:      []float64{0, -1e300, 1e-300, 0.1 + 0.2, -2.5, 1.0 / 3.0},
		NbClasses:  []string{"en", "fr"},
	}
}

type fakeLoader struct {
	model *langid.Model
	err   error
	calls int
}

func (l *fakeLoader) Load(ctx context.Context, path string) (*langid.Model, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.model, nil
}

type recordingSink struct {
	bytes.Buffer
	opened      bool
	closed      bool
	contentType string
	writeErr    error
}

func (s *recordingSink) Write(p []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	return s.Buffer.Write(p)
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func (s *recordingSink) dest() Destination {
	return func(ctx context.Context, contentType string) (io.WriteCloser, error) {
		s.opened = true
		s.contentType = contentType
		return s, nil
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		header, protobuf bool
		want             Mode
		wantErr          bool
	}{
		{false, false, ModeSource, false},
		{true, false, ModeHeader, false},
		{false, true, ModeProtobuf, false},
		{true, true, 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.header, tt.protobuf)
		if tt.wantErr {
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("ParseMode(%v, %v): got %v want ErrUsage", tt.header, tt.protobuf, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseMode(%v, %v): got %v, %v", tt.header, tt.protobuf, got, err)
		}
	}
}

func TestParseModeName(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Mode{"": ModeSource, "header": ModeHeader, "PB": ModeProtobuf, "source": ModeSource} {
		got, err := ParseModeName(in)
		if err != nil || got != want {
			t.Fatalf("ParseModeName(%q): got %v, %v", in, got, err)
		}
	}
	if _, err := ParseModeName("wasm"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestCompileWritesOnce(t *testing.T) {
	t.Parallel()
	for _, mode := range []Mode{ModeSource, ModeHeader, ModeProtobuf} {
		t.Run(mode.String(), func(t *testing.T) {
			t.Parallel()
			loader := &fakeLoader{model: fixtureModel()}
			sink := &recordingSink{}
			c := &Compiler{Loader: loader}

			art, err := c.Compile(context.Background(), Options{ModelPath: "m.json", Mode: mode}, sink.dest())
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if !sink.closed {
				t.Fatalf("sink not closed")
			}
			if sink.contentType != mode.ContentType() {
				t.Fatalf("content type: got %q want %q", sink.contentType, mode.ContentType())
			}
			if !bytes.Equal(sink.Bytes(), art.Data) {
				t.Fatalf("sink contents differ from artifact")
			}
			if art.Sizes != (langid.Sizes{NumFeats: 3, NumLangs: 2, NumStates: 2}) {
				t.Fatalf("sizes: got %+v", art.Sizes)
			}
			if loader.calls != 1 {
				t.Fatalf("expected one load, got %d", loader.calls)
			}
		})
	}
}

func TestCompileLoadErrorOpensNothing(t *testing.T) {
	t.Parallel()
	loadErr := errors.New("no such model")
	sink := &recordingSink{}
	c := &Compiler{Loader: &fakeLoader{err: loadErr}}

	if _, err := c.Compile(context.Background(), Options{ModelPath: "x"}, sink.dest()); !errors.Is(err, loadErr) {
		t.Fatalf("got %v want %v", err, loadErr)
	}
	if sink.opened {
		t.Fatalf("destination opened after load failure")
	}
}

func TestCompileInvalidModelOpensNothing(t *testing.T) {
	t.Parallel()
	m := fixtureModel()
	m.TkOutput[1] = []uint32{9}
	sink := &recordingSink{}
	c := &Compiler{Loader: &fakeLoader{model: m}}

	if _, err := c.Compile(context.Background(), Options{}, sink.dest()); !errors.Is(err, langid.ErrFeatureRange) {
		t.Fatalf("got %v want ErrFeatureRange", err)
	}
	if sink.opened {
		t.Fatalf("destination opened for invalid model")
	}
}

func TestCompileUnknownModeSkipsLoad(t *testing.T) {
	t.Parallel()
	loader := &fakeLoader{model: fixtureModel()}
	c := &Compiler{Loader: loader}
	if _, err := c.Build(context.Background(), Options{Mode: Mode(7)}); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("got %v want ErrUnknownMode", err)
	}
	if loader.calls != 0 {
		t.Fatalf("model loaded for invalid mode")
	}
}

func TestCompilePropagatesSinkErrors(t *testing.T) {
	t.Parallel()
	writeErr := errors.New("broken pipe")
	sink := &recordingSink{writeErr: writeErr}
	c := &Compiler{Loader: &fakeLoader{model: fixtureModel()}}
	if _, err := c.Compile(context.Background(), Options{}, sink.dest()); !errors.Is(err, writeErr) {
		t.Fatalf("got %v want %v", err, writeErr)
	}
	if !sink.closed {
		t.Fatalf("sink should be closed after write failure")
	}

	openErr := errors.New("permission denied")
	failOpen := func(context.Context, string) (io.WriteCloser, error) { return nil, openErr }
	if _, err := c.Compile(context.Background(), Options{}, failOpen); !errors.Is(err, openErr) {
		t.Fatalf("got %v want %v", err, openErr)
	}
}

// ptcFromSource extracts the nb_ptc initializer values from C source.
func ptcFromSource(t *testing.T, src string) []float64 {
	t.Helper()
	for _, line := range strings.Split(src, "\n") {
		if !strings.Contains(line, "double nb_ptc") {
			continue
		}
		body := line[strings.Index(line, "{")+1 : strings.LastIndex(line, "}")]
		var out []float64
		for _, s := range strings.Split(body, ",") {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				t.Fatalf("parse %q: %v", s, err)
			}
			out = append(out, v)
		}
		return out
	}
	t.Fatalf("nb_ptc not found in source")
	return nil
}

func TestSourceAndProtobufAgreeOnPTCOrder(t *testing.T) {
	t.Parallel()
	m := fixtureModel()
	for _, style := range []csource.Style{csource.StyleMacro, csource.StyleConst} {
		src, err := RenderModel(m, ModeSource, csource.Options{Style: style})
		if err != nil {
			t.Fatalf("render source: %v", err)
		}
		pb, err := RenderModel(m, ModeProtobuf, csource.Options{Style: style})
		if err != nil {
			t.Fatalf("render protobuf: %v", err)
		}
		decoded, err := langid.UnmarshalProto(pb.Data)
		if err != nil {
			t.Fatalf("UnmarshalProto: %v", err)
		}

		fromSource := ptcFromSource(t, string(src.Data))
		if len(fromSource) != len(decoded.NbPTC) {
			t.Fatalf("length: source %d protobuf %d", len(fromSource), len(decoded.NbPTC))
		}
		for i := range fromSource {
			if math.Float64bits(fromSource[i]) != math.Float64bits(decoded.NbPTC[i]) {
				t.Fatalf("style %v element %d: source %v protobuf %v", style, i, fromSource[i], decoded.NbPTC[i])
			}
			if fromSource[i] != m.NbPTC[i] {
				t.Fatalf("style %v element %d: source %v model %v", style, i, fromSource[i], m.NbPTC[i])
			}
		}
	}
}

func TestLabelRendering(t *testing.T) {
	t.Parallel()
	m := fixtureModel()

	src, err := RenderModel(m, ModeSource, csource.Options{})
	if err != nil {
		t.Fatalf("render source: %v", err)
	}
	if !strings.Contains(string(src.Data), `nb_classes[NUM_LANGS] = {"en","fr"};`) {
		t.Fatalf("unexpected label rendering:\n%s", src.Data)
	}

	pb, err := RenderModel(m, ModeProtobuf, csource.Options{})
	if err != nil {
		t.Fatalf("render protobuf: %v", err)
	}
	for _, quoted := range []string{`"en"`, `"fr"`} {
		if !bytes.Contains(pb.Data, append([]byte{byte(len(quoted))}, quoted...)) {
			t.Fatalf("protobuf missing length-prefixed %s", quoted)
		}
	}
}

func TestHeaderMatchesSourceStyle(t *testing.T) {
	t.Parallel()
	m := fixtureModel()
	for _, style := range []csource.Style{csource.StyleMacro, csource.StyleConst} {
		opts := csource.Options{Style: style}
		src, err := RenderModel(m, ModeSource, opts)
		if err != nil {
			t.Fatalf("render source: %v", err)
		}
		hdr, err := RenderModel(m, ModeHeader, opts)
		if err != nil {
			t.Fatalf("render header: %v", err)
		}
		for _, line := range strings.Split(string(hdr.Data), "\n") {
			decl, ok := strings.CutPrefix(line, "extern ")
			if !ok {
				continue
			}
			decl = strings.TrimSuffix(decl, ";")
			if !strings.Contains(string(src.Data), "\n"+decl+" = {") {
				t.Fatalf("style %v: header declaration %q has no matching definition", style, decl)
			}
		}
	}
}

package jsonvalue

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
)

// obj builds an object from alternating key/value arguments.
func obj(kv ...any) *Object {
	o := NewObject(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1].(Value))
	}
	return o
}

func decodeAll(t *testing.T, input string) []Value {
	t.Helper()

	var docs []Value
	for v, err := range NewDecoder(strings.NewReader(input)).All() {
		if err != nil {
			t.Fatalf("All() unexpected error: %v", err)
		}
		docs = append(docs, v)
	}
	return docs
}

func TestDecoder_Values(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Value
	}{
		{
			name:  "empty_stream",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace_only",
			input: " \n\t ",
			want:  nil,
		},
		{
			name:  "scalars",
			input: `"text" 12.5e3 true false null`,
			want:  []Value{String("text"), Number("12.5e3"), Bool(true), Bool(false), Null{}},
		},
		{
			name:  "object_preserves_order",
			input: `{"z":"1","a":"2","m":"3"}`,
			want:  []Value{obj("z", String("1"), "a", String("2"), "m", String("3"))},
		},
		{
			name:  "nested_containers",
			input: `{"a":[1,{"b":[]},{}],"c":{"d":null}}`,
			want: []Value{obj(
				"a", Array{Number("1"), obj("b", Array{}), obj()},
				"c", obj("d", Null{}),
			)},
		},
		{
			name:  "concatenated_documents",
			input: `{"x":"first string!!"}{"x":"second string!!"}`,
			want: []Value{
				obj("x", String("first string!!")),
				obj("x", String("second string!!")),
			},
		},
		{
			name:  "newline_delimited_documents",
			input: "[\"a\"]\n[\"b\"]\n",
			want:  []Value{Array{String("a")}, Array{String("b")}},
		},
		{
			name:  "duplicate_key_keeps_first_position",
			input: `{"a":"1","b":"2","a":"3"}`,
			want:  []Value{obj("a", String("3"), "b", String("2"))},
		},
		{
			name:  "escaped_strings",
			input: `{"kéy":"line\nbreak \"quoted\""}`,
			want:  []Value{obj("kéy", String("line\nbreak \"quoted\""))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeAll(t, tt.input)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(Object{})); diff != "" {
				t.Errorf("decoded values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecoder_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
	}{
		{name: "unterminated_object", input: `{"a":1`, wantCount: 0},
		{name: "unterminated_string", input: `{"a":"hel`, wantCount: 0},
		{name: "missing_colon", input: `{"a" "b"}`, wantCount: 0},
		{name: "trailing_comma", input: `[1,]`, wantCount: 0},
		{name: "bad_second_document", input: `{"a":"ok"} {"b":}`, wantCount: 1},
		{name: "stray_closing_brace", input: `{"a":"ok"}}`, wantCount: 1},
		{name: "bare_word", input: `hello`, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(strings.NewReader(tt.input))

			var err error
			for {
				if _, err = dec.Next(); err != nil {
					break
				}
			}

			if errors.Is(err, io.EOF) {
				t.Fatal("Next() reached EOF, want syntax error")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Next() error = %v, want ErrMalformed", err)
			}

			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("Next() error type = %T, want *SyntaxError", err)
			}
			if syntaxErr.Offset < 0 || syntaxErr.Offset > int64(len(tt.input)) {
				t.Errorf("SyntaxError.Offset = %d out of range", syntaxErr.Offset)
			}

			if dec.Count() != tt.wantCount {
				t.Errorf("Count() = %d, want %d", dec.Count(), tt.wantCount)
			}

			if _, again := dec.Next(); again != err {
				t.Errorf("Next() after error = %v, want sticky %v", again, err)
			}
		})
	}
}

func TestDecoder_ReaderFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	dec := NewDecoder(iotest.ErrReader(boom))

	_, err := dec.Next()
	if !errors.Is(err, boom) {
		t.Fatalf("Next() error = %v, want wrapped %v", err, boom)
	}
	if errors.Is(err, ErrMalformed) {
		t.Error("reader failures must not be reported as malformed JSON")
	}
}

func TestDecoder_OneByteReader(t *testing.T) {
	input := `{"a":["x","y"]} "tail"`
	dec := NewDecoder(iotest.OneByteReader(strings.NewReader(input)))

	first, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if diff := cmp.Diff(Value(obj("a", Array{String("x"), String("y")})), first, cmp.AllowUnexported(Object{})); diff != "" {
		t.Errorf("first document mismatch (-want +got):\n%s", diff)
	}

	second, err := dec.Next()
	if err != nil || second != String("tail") {
		t.Fatalf("Next() = %v, %v, want \"tail\"", second, err)
	}

	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
	if dec.InputOffset() != int64(len(input)) {
		t.Errorf("InputOffset() = %d, want %d", dec.InputOffset(), len(input))
	}
}

func TestDecoder_Text(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Value
	}{
		{name: "multi_byte", input: `"héllo €😀"`, want: []Value{String("héllo €😀")}},
		{name: "surrogate_pair", input: `"\ud83d\ude00"`, want: []Value{String("😀")}},
		{name: "uppercase_surrogate_pair", input: `"\uD83D\uDE00"`, want: []Value{String("😀")}},
		{name: "escaped_backslash_before_u", input: `"\\ud800"`, want: []Value{String(`\ud800`)}},
		{name: "bmp_escape", input: `{"k\u00e9":"\u20ac"}`, want: []Value{obj("ké", String("€"))}},
		{name: "quote_escape", input: `"a\"\ud800\udc00"`, want: []Value{String("a\"\U00010000")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeAll(t, tt.input)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(Object{})); diff != "" {
				t.Errorf("decoded values mismatch (-want +got):\n%s", diff)
			}

			// a rune or escape split across reads must not change the outcome
			var split []Value
			dec := NewDecoder(iotest.OneByteReader(strings.NewReader(tt.input)))
			for v, err := range dec.All() {
				if err != nil {
					t.Fatalf("one byte reads: unexpected error: %v", err)
				}
				split = append(split, v)
			}
			if diff := cmp.Diff(tt.want, split, cmp.AllowUnexported(Object{})); diff != "" {
				t.Errorf("one byte reads mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecoder_InvalidText(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantErr    error
		wantOffset int64
		wantCount  int
	}{
		{name: "invalid_bytes", input: "{\"a\":\"\xff\xfeab\"}", wantErr: ErrInvalidUTF8, wantOffset: 6},
		{name: "invalid_in_key", input: "{\"\xc3\":\"x\"}", wantErr: ErrInvalidUTF8, wantOffset: 2},
		{name: "truncated_rune_at_end", input: "\"ok\" \"\xe2\x82", wantErr: ErrInvalidUTF8, wantOffset: 6, wantCount: 1},
		{name: "encoded_surrogate", input: "\"\xed\xa0\x80\"", wantErr: ErrInvalidUTF8, wantOffset: 1},
		{name: "after_valid_document", input: "\"ok\" \"\xff\"", wantErr: ErrInvalidUTF8, wantOffset: 6, wantCount: 1},
		{name: "lone_high", input: `"\ud800"`, wantErr: ErrLoneSurrogate, wantOffset: 7},
		{name: "lone_high_before_text", input: `"\ud800x"`, wantErr: ErrLoneSurrogate, wantOffset: 7},
		{name: "high_then_other_escape", input: `"\ud800\n"`, wantErr: ErrLoneSurrogate, wantOffset: 8},
		{name: "high_then_high", input: `"\ud800\ud800"`, wantErr: ErrLoneSurrogate, wantOffset: 12},
		{name: "high_then_bmp", input: `"\uD800\u0041"`, wantErr: ErrLoneSurrogate, wantOffset: 12},
		{name: "lone_low", input: `["\udc00"]`, wantErr: ErrLoneSurrogate, wantOffset: 7},
		{name: "high_then_multi_byte", input: `"\ud800é"`, wantErr: ErrLoneSurrogate, wantOffset: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range []io.Reader{strings.NewReader(tt.input), iotest.OneByteReader(strings.NewReader(tt.input))} {
				dec := NewDecoder(r)

				var err error
				for {
					if _, err = dec.Next(); err != nil {
						break
					}
				}

				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Next() error = %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("Next() error = %v, want ErrMalformed", err)
				}

				var syntaxErr *SyntaxError
				if !errors.As(err, &syntaxErr) {
					t.Fatalf("Next() error type = %T, want *SyntaxError", err)
				}
				if syntaxErr.Offset != tt.wantOffset {
					t.Errorf("SyntaxError.Offset = %d, want %d", syntaxErr.Offset, tt.wantOffset)
				}
				if dec.Count() != tt.wantCount {
					t.Errorf("Count() = %d, want %d", dec.Count(), tt.wantCount)
				}
			}
		})
	}
}

package framing

import (
	"reflect"
	"testing"
)

func collect(lines *[]string) func(string) {
	return func(line string) {
		*lines = append(*lines, line)
	}
}

func TestFramerSplitsChunksAcrossWrites(t *testing.T) {
	var lines []string
	f := New(collect(&lines))

	for _, chunk := range []string{"foo\nbar\n", "ba", "z\n"} {
		if _, err := f.Write([]byte(chunk)); err != nil {
			t.Fatalf("write %q: %v", chunk, err)
		}
	}

	want := []string{"foo", "bar", "baz"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	if f.Pending() != 0 {
		t.Fatalf("expected empty buffer, %d bytes pending", f.Pending())
	}
}

func TestFramerRetainsPartialTrailingData(t *testing.T) {
	var lines []string
	f := New(collect(&lines))

	f.Write([]byte("incomple"))
	if len(lines) != 0 {
		t.Fatalf("emitted %v before newline arrived", lines)
	}
	if f.Pending() == 0 {
		t.Fatal("expected partial data to be retained")
	}

	f.Write([]byte("te\n"))
	if len(lines) != 1 || lines[0] != "incomplete" {
		t.Fatalf("lines = %v, want [incomplete]", lines)
	}
}

func TestFramerDropsBlankLines(t *testing.T) {
	var lines []string
	f := New(collect(&lines))

	f.Write([]byte("\n  \n\r\n\t\nreal\n"))
	if len(lines) != 1 || lines[0] != "real" {
		t.Fatalf("lines = %v, want [real]", lines)
	}
}

func TestFramerTrimsCarriageReturnAndWhitespace(t *testing.T) {
	var lines []string
	f := New(collect(&lines))

	f.Write([]byte("  hello world \r\n"))
	if len(lines) != 1 || lines[0] != "hello world" {
		t.Fatalf("lines = %v, want [hello world]", lines)
	}
}

func TestFramerReplacesInvalidUTF8(t *testing.T) {
	var lines []string
	f := New(collect(&lines))

	f.Write([]byte{'o', 'k', 0xff, 0xfe, '!', '\n'})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %v", lines)
	}
	if lines[0] != "ok�!" && lines[0] != "ok��!" {
		t.Fatalf("invalid bytes not replaced: %q", lines[0])
	}
}

func TestFramerResetDiscardsPartialLine(t *testing.T) {
	var lines []string
	f := New(collect(&lines))

	f.Write([]byte("stale"))
	f.Reset()
	f.Write([]byte("fresh\n"))

	if len(lines) != 1 || lines[0] != "fresh" {
		t.Fatalf("lines = %v, want [fresh]", lines)
	}
}

func TestFramerManyLinesInOneWrite(t *testing.T) {
	var lines []string
	f := New(collect(&lines))

	f.Write([]byte("a\nb\nc\nd"))
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	f.Write([]byte("\n"))
	if lines[len(lines)-1] != "d" {
		t.Fatalf("final line = %q, want d", lines[len(lines)-1])
	}
}

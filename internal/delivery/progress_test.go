package delivery

import (
	"bytes"
	"io"
	"slices"
	"testing"
)

func TestProgress_Sequence(t *testing.T) {
	var got []int
	p := newProgress(func(pct int) { got = append(got, pct) }, 200)

	p.start()
	r := &progressReader{r: bytes.NewReader(make([]byte, 200)), p: p}
	buf := make([]byte, 50)
	for {
		if _, err := r.Read(buf); err == io.EOF {
			break
		}
	}
	p.finish(true)
	p.finish(true)

	want := []int{0, 25, 50, 75, 99, 100}
	if !slices.Equal(got, want) {
		t.Errorf("progress = %v, want %v", got, want)
	}
}

func TestProgress_FailureStopsReporting(t *testing.T) {
	var got []int
	p := newProgress(func(pct int) { got = append(got, pct) }, 10)

	p.start()
	p.advance(5)
	p.finish(false)
	p.advance(5)

	if want := []int{0, 50}; !slices.Equal(got, want) {
		t.Errorf("progress = %v, want %v", got, want)
	}
}

func TestProgress_NilCallback(t *testing.T) {
	p := newProgress(nil, 10)
	p.start()
	p.advance(10)
	p.finish(true)
}

func TestProgress_EmptyFile(t *testing.T) {
	var got []int
	p := newProgress(func(pct int) { got = append(got, pct) }, 0)
	p.start()
	p.finish(true)

	if want := []int{0, 100}; !slices.Equal(got, want) {
		t.Errorf("progress = %v, want %v", got, want)
	}
}

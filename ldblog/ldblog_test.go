package ldblog

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func openLog(t *testing.T, dir string) *Log {
	t.Helper()
	l, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestLogAppendEach(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	l := openLog(t, dir)
	defer l.Close()

	want := []*BatchRecord{
		{Batch: 1, Scores: []int{3, 5}, Loss: -0.25, Elapsed: time.Second},
		{Batch: 2, Scores: []int{7}, Loss: 0.5, Elapsed: 2 * time.Second},
	}
	for _, r := range want {
		if err := l.Append(r); err != nil {
			t.Fatal(err)
		}
	}
	if l.Len() != 2 {
		t.Errorf("expected 2 records, got %d", l.Len())
	}

	var got []*BatchRecord
	err := l.Each(func(r *BatchRecord) error {
		c := *r
		got = append(got, &c)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected records %+v back, got %+v", want, got)
	}
}

func TestLogReopenContinues(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	l := openLog(t, dir)
	for i := 1; i <= 2; i++ {
		if err := l.Append(&BatchRecord{Batch: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	l = openLog(t, dir)
	defer l.Close()
	if l.Len() != 2 {
		t.Fatalf("expected 2 records after reopening, got %d", l.Len())
	}
	if err := l.Append(&BatchRecord{Batch: 3}); err != nil {
		t.Fatal(err)
	}

	var batches []int
	err := l.Each(func(r *BatchRecord) error {
		batches = append(batches, r.Batch)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(batches, []int{1, 2, 3}) {
		t.Errorf("expected batches [1 2 3], got %v", batches)
	}
}

func TestLogIterationOrder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	l := openLog(t, dir)
	defer l.Close()

	// Enough records that single-byte keys would break the order.
	const n = 300
	for i := 1; i <= n; i++ {
		if err := l.Append(&BatchRecord{Batch: i}); err != nil {
			t.Fatal(err)
		}
	}

	i := 0
	err := l.Each(func(r *BatchRecord) error {
		i++
		if r.Batch != i {
			t.Fatalf("position %d: expected batch %d, got %d", i, i, r.Batch)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if i != n {
		t.Errorf("expected %d records visited, got %d", n, i)
	}
}

func TestLogEachStopsOnError(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	l := openLog(t, dir)
	defer l.Close()

	for i := 1; i <= 3; i++ {
		if err := l.Append(&BatchRecord{Batch: i}); err != nil {
			t.Fatal(err)
		}
	}

	stop := errors.New("stop")
	visited := 0
	err := l.Each(func(*BatchRecord) error {
		visited++
		return stop
	})
	if err != stop {
		t.Errorf("expected the callback error back, got %v", err)
	}
	if visited != 1 {
		t.Errorf("expected iteration to stop after 1 record, got %d", visited)
	}
}

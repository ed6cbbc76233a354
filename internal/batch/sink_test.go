package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rniirs/news-harvester/internal/domain"
)

func records(n int) []domain.NewsRecord {
	out := make([]domain.NewsRecord, n)
	for i := range out {
		out[i] = domain.NewsRecord{Title: fmt.Sprintf("t%d", i), Link: fmt.Sprintf("/news/%d", i)}
	}
	return out
}

func TestSinkFlushesFullBatchesThenRemainder(t *testing.T) {
	var sizes []int
	sink := New(10, func(_ context.Context, batch []domain.NewsRecord) error {
		sizes = append(sizes, len(batch))
		return nil
	})

	ctx := context.Background()
	for _, r := range records(25) {
		if err := sink.Add(ctx, r); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if sink.Pending() != 5 {
		t.Fatalf("expected 5 pending, got %d", sink.Pending())
	}
	if err := sink.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}

	if fmt.Sprint(sizes) != "[10 10 5]" {
		t.Fatalf("unexpected batch sizes %v", sizes)
	}
	if sink.Pending() != 0 || len(sink.Sent()) != 25 || len(sink.Failed()) != 0 {
		t.Fatalf("unexpected counters pending=%d sent=%d failed=%d", sink.Pending(), len(sink.Sent()), len(sink.Failed()))
	}
	if sink.Sent()[0].Link != "/news/0" || sink.Sent()[24].Link != "/news/24" {
		t.Fatalf("records delivered out of order")
	}
}

func TestSinkAddManyAtOnce(t *testing.T) {
	var sizes []int
	sink := New(4, func(_ context.Context, batch []domain.NewsRecord) error {
		sizes = append(sizes, len(batch))
		return nil
	})
	if err := sink.Add(context.Background(), records(9)...); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if fmt.Sprint(sizes) != "[4 4]" || sink.Pending() != 1 {
		t.Fatalf("unexpected flush sizes=%v pending=%d", sizes, sink.Pending())
	}
}

func TestSinkKeepsFailedBatches(t *testing.T) {
	calls := 0
	sink := New(2, func(_ context.Context, batch []domain.NewsRecord) error {
		calls++
		if batch[0].Link == "/news/2" {
			return errors.New("downstream 500")
		}
		return nil
	})

	ctx := context.Background()
	err := sink.Add(ctx, records(5)...)
	if err == nil {
		t.Fatalf("expected send error from Add")
	}
	if err := sink.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}
	// calling again must not retry the failed batch
	if err := sink.FlushAll(ctx); err != nil {
		t.Fatalf("second FlushAll: %v", err)
	}

	if calls != 3 {
		t.Fatalf("expected 3 send calls, got %d", calls)
	}
	failed := sink.Failed()
	if len(failed) != 2 || failed[0].Link != "/news/2" || failed[1].Link != "/news/3" {
		t.Fatalf("unexpected failed records %#v", failed)
	}
	if len(sink.Sent()) != 3 {
		t.Fatalf("expected 3 sent records, got %d", len(sink.Sent()))
	}
}

func TestSinkDefaultSize(t *testing.T) {
	var sizes []int
	sink := New(0, func(_ context.Context, batch []domain.NewsRecord) error {
		sizes = append(sizes, len(batch))
		return nil
	})
	if err := sink.Add(context.Background(), records(DefaultSize)...); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(sizes) != 1 || sizes[0] != DefaultSize {
		t.Fatalf("expected one default-size batch, got %v", sizes)
	}
}

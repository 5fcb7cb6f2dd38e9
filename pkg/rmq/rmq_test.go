package rmq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestRetries(t *testing.T) {
	cases := []struct {
		h    amqp.Table
		want int
	}{
		{nil, 0},
		{amqp.Table{}, 0},
		{amqp.Table{RetriesHeader: int32(2)}, 2},
		{amqp.Table{RetriesHeader: int64(3)}, 3},
		{amqp.Table{RetriesHeader: uint8(1)}, 1},
		{amqp.Table{RetriesHeader: "4"}, 0},
	}
	for _, tc := range cases {
		if got := Retries(tc.h); got != tc.want {
			t.Fatalf("Retries(%v)=%d, want %d", tc.h, got, tc.want)
		}
	}
}

func TestWithRetries_Copies(t *testing.T) {
	orig := amqp.Table{"trace": "abc"}
	got := WithRetries(orig, 2)

	if _, ok := orig[RetriesHeader]; ok {
		t.Fatal("original headers were modified")
	}
	if got["trace"] != "abc" || Retries(got) != 2 {
		t.Fatalf("unexpected headers: %v", got)
	}
	if Retries(WithRetries(nil, 1)) != 1 {
		t.Fatal("nil headers should be accepted")
	}
}

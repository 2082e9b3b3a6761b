package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits/sink"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/resilience"
)

func testOptions() sink.Options {
	return sink.Options{
		BatchSize:     2,
		FlushInterval: 50 * time.Millisecond,
		Retry:         resilience.RetryConfig{MaxAttempts: 2, InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond},
	}
}

func TestRedisHitStream(t *testing.T) {
	client := skipIfNoRedis(t)
	ctx := context.Background()
	stream := uniqueName("kmer:hits:test")
	t.Cleanup(func() { client.Del(context.Background(), stream) })

	s := sink.NewRedis(client, stream, 1000, testOptions())
	recs := []hits.Record{
		{GeneName: "rplB", QueryID: "q1", RefID: "r1", NuclKmer: "acg", IsProt: true, Frame: 2, ProtKmer: "t", ModelPos: 4},
		{GeneName: "rplB", QueryID: "q1", RefID: "r2", NuclKmer: "cgt", ModelPos: -1},
		{GeneName: "nifH", QueryID: "q2", RefID: "r3", NuclKmer: "gta", ModelPos: 9},
	}
	if err := s.WriteHits(ctx, recs); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	n, err := client.Len(ctx, stream)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 stream entries, got %d", n)
	}
	entries, err := client.Range(ctx, stream)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0]["prot_kmer"] != "t" || entries[0]["frame"] != "2" {
		t.Errorf("unexpected first entry %v", entries[0])
	}
	if _, ok := entries[1]["prot_kmer"]; ok {
		t.Errorf("nucleotide hit should carry no prot_kmer: %v", entries[1])
	}
}

func TestKafkaHitRoundTrip(t *testing.T) {
	cfg := skipIfNoKafka(t)
	topic := uniqueName("kmer-hits-test")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	producer := kafka.NewProducer(cfg, topic)
	s := sink.NewKafka(producer, testOptions())
	want := hits.Record{GeneName: "amoA", QueryID: "q9", RefID: "r", NuclKmer: "acgt", ModelPos: 12}
	if err := s.WriteHits(ctx, []hits.Record{want}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	producer.Close()

	var mu sync.Mutex
	var got []hits.Record
	consumerCtx, stop := context.WithCancel(ctx)
	consumer := kafka.NewConsumer(cfg, topic, func(_ context.Context, _ []byte, value []byte) error {
		rec, err := kafka.DecodeJSON[hits.Record](value)
		if err != nil {
			return err
		}
		mu.Lock()
		got = append(got, rec)
		mu.Unlock()
		stop()
		return nil
	})
	defer consumer.Close()
	if err := consumer.Start(consumerCtx); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != want {
		t.Errorf("consumed %+v, want %+v", got, want)
	}
}

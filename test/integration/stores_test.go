package integration

import (
	"context"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/coverage"
	covstore "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/coverage/store"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
	hitstore "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits/store"
)

func TestHitStoreRoundTrip(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	st := hitstore.New(db)
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	query := uniqueName("q")
	recs := []hits.Record{
		{GeneName: "rplB", QueryID: query, RefID: "ref1", NuclKmer: "acgtacgtacgtacg", IsProt: true, Frame: -2, ProtKmer: "tyvrt", ModelPos: 7},
		{GeneName: "rplB", QueryID: query, RefID: "ref2", NuclKmer: "cgtacgtacgtacgt", ModelPos: -1},
	}
	if err := st.Save(ctx, recs); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := st.ByQuery(ctx, query)
	if err != nil {
		t.Fatalf("by query: %v", err)
	}
	if len(got) != 2 || got[0] != recs[0] || got[1] != recs[1] {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, recs)
	}
	counts, err := st.GeneCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["rplB"] < 2 {
		t.Errorf("expected at least 2 rplB hits, got %d", counts["rplB"])
	}
}

func TestHitStoreMessageHandler(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	st := hitstore.New(db)
	if err := st.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	query := uniqueName("msg")
	handle := hitstore.HandleMessage(st)
	value := []byte(`{"gene_name":"nifH","query_id":"` + query + `","ref_id":"r","nucl_kmer":"acg","is_prot":false,"frame":0,"model_pos":3}`)
	if err := handle(ctx, []byte(query), value); err != nil {
		t.Fatal(err)
	}
	got, err := st.ByQuery(ctx, query)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].GeneName != "nifH" || got[0].ModelPos != 3 {
		t.Errorf("unexpected stored hits %+v", got)
	}
}

func TestCoverageStore(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	st := covstore.New(db)
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sum := coverage.Summary{
		RunID:        uniqueName("run"),
		K:            30,
		ReadsScanned: 3,
		ReadsMatched: 3,
		Contigs: []coverage.ContigStats{
			{ID: "contig1", MeanCov: 1.1, MedianCov: 0.667, TotalPos: 30, CoveredPos: 30, CoveredRatio: 1},
		},
		Abundance: []coverage.AbundanceBin{{Abundance: 2, Kmers: 57}},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := st.Save(ctx, sum); err != nil {
		t.Fatalf("save: %v", err)
	}
	// saving the same run again replaces it
	sum.ReadsMatched = 2
	if err := st.Save(ctx, sum); err != nil {
		t.Fatalf("resave: %v", err)
	}

	got, err := st.Get(ctx, sum.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ReadsMatched != 2 || len(got.Contigs) != 1 || got.Contigs[0].ID != "contig1" {
		t.Errorf("unexpected stored summary %+v", got)
	}
	missing, err := st.Get(ctx, uniqueName("absent"))
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for unknown run, got %v, %v", missing, err)
	}
	list, err := st.List(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) == 0 {
		t.Error("expected at least one listed run")
	}
}

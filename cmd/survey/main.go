package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/MJE43/tokentrek-go/internal/scan"
)

func main() {
	var (
		seed        = flag.String("seed", "tokentrek", "world seed")
		probability = flag.Float64("p", 0.1, "spawn probability")
		iStart      = flag.Int("i-start", 0, "first row index")
		iEnd        = flag.Int("i-end", 99, "last row index (inclusive)")
		jStart      = flag.Int("j-start", 0, "first column index")
		jEnd        = flag.Int("j-end", 99, "last column index (inclusive)")
		targetOp    = flag.String("op", "", "count filter: eq, gt, ge, lt, le, between, outside (empty keeps all caches)")
		targetVal   = flag.Int("val", 0, "count filter operand")
		targetVal2  = flag.Int("val2", 0, "second operand for between/outside")
		limit       = flag.Int("limit", 0, "max hits to report (0 = unlimited)")
		timeoutMs   = flag.Int("timeout-ms", 0, "scan timeout in milliseconds (0 = none)")
		asJSON      = flag.Bool("json", false, "emit the full result as JSON")
	)
	flag.Parse()

	req := scan.Request{
		Seed:             *seed,
		SpawnProbability: *probability,
		IStart:           *iStart,
		IEnd:             *iEnd,
		JStart:           *jStart,
		JEnd:             *jEnd,
		TargetOp:         scan.TargetOp(*targetOp),
		TargetVal:        *targetVal,
		TargetVal2:       *targetVal2,
		Limit:            *limit,
		TimeoutMs:        *timeoutMs,
	}

	scanner := scan.NewScanner()
	result, err := scanner.Scan(context.Background(), req)
	if err != nil {
		log.Fatalf("survey failed: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("encode result: %v", err)
		}
		return
	}

	for _, h := range result.Hits {
		fmt.Printf("%s\t%d\n", h.Tile.Key(), h.Count)
	}
	s := result.Summary
	fmt.Printf("\nscanned %d tiles, %d caches (%.2f%%), %d hits\n",
		s.TilesScanned, s.CachesFound,
		100*float64(s.CachesFound)/float64(max(s.TilesScanned, 1)), s.HitCount)
	if s.HitCount > 0 {
		fmt.Printf("token counts: min=%d max=%d mean=%.2f\n", s.MinCount, s.MaxCount, s.MeanCount)
	}
	if s.TimedOut {
		fmt.Println("scan timed out before covering the full region")
	}
}

package rstar_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/hupe1980/rstar"
)

func Example() {
	ctx := context.Background()
	db, err := rstar.Open(ctx, rstar.Memory(), 2)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(ctx)

	for _, r := range []rstar.Record{
		{ID: 1, Name: "a", Coords: []float64{1, 1}},
		{ID: 2, Name: "b", Coords: []float64{2, 3}},
		{ID: 3, Name: "c", Coords: []float64{3, 2}},
		{ID: 4, Name: "d", Coords: []float64{4, 4}},
		{ID: 5, Name: "e", Coords: []float64{0, 5}},
	} {
		if err := db.Insert(ctx, r); err != nil {
			log.Fatal(err)
		}
	}

	in, _ := db.Range(ctx, []float64{1, 1}, []float64{3, 3})
	for _, r := range in {
		fmt.Println(r)
	}

	nn, _ := db.KNN(ctx, []float64{2, 2}, 2)
	for _, n := range nn {
		fmt.Printf("%s (%.3f)\n", n.Record.Name, n.Distance)
	}

	sky, _ := db.Skyline(ctx)
	for _, r := range sky {
		fmt.Println(r.Name)
	}
	// Output:
	// ID: 1, Name: a, Coordinates: 1, 1
	// ID: 2, Name: b, Coordinates: 2, 3
	// ID: 3, Name: c, Coordinates: 3, 2
	// b (1.000)
	// c (1.000)
	// a
	// e
}

func ExampleDB_Load() {
	ctx := context.Background()
	db, _ := rstar.Open(ctx, rstar.Memory(), 2)
	defer db.Close(ctx)

	input := `id,name,lat,lon
1,Athens,37.98,23.72
2,Berlin,52.52,13.40
3,Cairo,30.04,31.24
`
	res, err := db.Load(ctx, strings.NewReader(input), rstar.LoadOptions{SkipHeader: true, Bulk: true})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Records, "records in", res.Blocks, "block")

	nn, _ := db.KNN(ctx, []float64{38, 24}, 1)
	fmt.Println(nn[0].Record.Name)
	// Output:
	// 3 records in 1 block
	// Athens
}

func ExampleBasicMetricsCollector() {
	ctx := context.Background()
	metrics := &rstar.BasicMetricsCollector{}
	db, _ := rstar.Open(ctx, rstar.Memory(), 1, rstar.WithMetricsCollector(metrics))
	defer db.Close(ctx)

	_ = db.Insert(ctx, rstar.Record{ID: 1, Coords: []float64{1}})
	_ = db.Insert(ctx, rstar.Record{ID: 1, Coords: []float64{2}})

	stats := metrics.GetStats()
	fmt.Println(stats.InsertCount, stats.InsertErrors)
	// Output: 2 1
}

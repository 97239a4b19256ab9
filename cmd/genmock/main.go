// Command genmock generates a deterministic mock portfolio fixture for the
// resolve CLI and for local development without a live backend. A fraction of
// the generated properties already carry backend coordinates; the rest rely on
// the cache or the geocoding provider, and a few have no usable address at all
// so failure handling can be exercised.
//
// Usage:
//
//	go run ./cmd/genmock -out testdata/portfolio.json -count 50
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/plazaview/property-geocode-service/internal/domain"
)

type metro struct {
	city  string
	state string
	zip   string
	lat   float64
	lng   float64
}

var metros = []metro{
	{city: "Philadelphia", state: "PA", zip: "19103", lat: 39.9526, lng: -75.1652},
	{city: "Wilmington", state: "DE", zip: "19801", lat: 39.7391, lng: -75.5398},
	{city: "Cherry Hill", state: "NJ", zip: "08002", lat: 39.9268, lng: -75.0246},
	{city: "Baltimore", state: "MD", zip: "21201", lat: 39.2904, lng: -76.6122},
	{city: "Allentown", state: "PA", zip: "18101", lat: 40.6023, lng: -75.4714},
}

var nameSuffixes = []string{"Plaza", "Shopping Center", "Commons", "Square", "Marketplace", "Crossing", "Station"}

var streetNames = []string{"Market St", "Lancaster Ave", "Baltimore Pike", "Ridge Rd", "Main St", "Union Blvd", "Kirkwood Hwy"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the portfolio JSON fixture")
	count := flag.Int("count", 50, "number of properties to generate")
	seed := flag.Int64("seed", 1, "random seed, fixed for reproducible fixtures")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	properties := generate(*count, *seed)
	if err := writeJSON(*out, properties); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d properties: %s", len(properties), *out)

	printStats(properties)
	return nil
}

func generate(count int, seed int64) []domain.Property {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // fixture data, not crypto

	properties := make([]domain.Property, 0, count)
	for i := 1; i <= count; i++ {
		m := metros[rng.Intn(len(metros))]
		p := domain.Property{
			ID:     int64(i),
			Name:   fmt.Sprintf("%s %s", m.city, nameSuffixes[rng.Intn(len(nameSuffixes))]),
			Street: fmt.Sprintf("%d %s", 100+rng.Intn(9000), streetNames[rng.Intn(len(streetNames))]),
			City:   m.city,
			State:  m.state,
			Zip:    m.zip,
		}

		switch {
		case rng.Float64() < 0.4:
			// Backend already has coordinates: jitter around the metro center.
			p.Latitude = m.lat + (rng.Float64()-0.5)*0.2
			p.Longitude = m.lng + (rng.Float64()-0.5)*0.2
		case rng.Float64() < 0.05:
			// No usable address: this one should land in the failed list.
			p.Street, p.City, p.State, p.Zip = "", "", "", ""
		}

		properties = append(properties, p)
	}
	return properties
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(properties []domain.Property) {
	var withCoords, withAddress, unresolvable int
	stateCounts := map[string]int{}
	for i := range properties {
		p := &properties[i]
		stateCounts[p.State]++
		switch {
		case p.HasCoordinates():
			withCoords++
		case p.AddressKey() != "":
			withAddress++
		default:
			unresolvable++
		}
	}

	fmt.Println("\n=== Fixture stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(properties))
	fmt.Printf("With backend coordinates: %d\n", withCoords)
	fmt.Printf("Needing geocoding: %d\n", withAddress)
	fmt.Printf("Unresolvable (no address): %d\n", unresolvable)
	fmt.Printf("By state: ")
	for state, n := range stateCounts {
		fmt.Printf("%s=%d ", state, n)
	}
	fmt.Println()
}

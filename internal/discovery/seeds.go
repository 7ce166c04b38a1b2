package discovery

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/BTreeMap/LeadPipe/internal/models"
)

// SeedCompany is one row of the seed CSV: a known company used when web
// search finds nothing or is explicitly bypassed.
type SeedCompany struct {
	Name    string
	Website string
	City    string
	State   string
	Country string
}

// LoadSeeds reads the seed companies CSV. The first row is a header with
// columns name, website, city, state, country (order-independent).
// Rows without a website are dropped.
func LoadSeeds(path string) ([]SeedCompany, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seeds file failed: %w", err)
	}
	defer f.Close()
	return parseSeeds(f)
}

func parseSeeds(r io.Reader) ([]SeedCompany, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read seeds header failed: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var seeds []SeedCompany
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read seeds row failed: %w", err)
		}
		s := SeedCompany{
			Name:    field(record, "name"),
			Website: field(record, "website"),
			City:    field(record, "city"),
			State:   field(record, "state"),
			Country: field(record, "country"),
		}
		if s.Website == "" {
			continue
		}
		seeds = append(seeds, s)
	}
	return seeds, nil
}

// Company converts a seed row to a company tagged with the "seeds" source.
func (s SeedCompany) Company() models.Company {
	return models.Company{
		Name:    s.Name,
		Website: s.Website,
		City:    s.City,
		State:   s.State,
		Country: s.Country,
		Source:  "seeds",
	}
}

package guests

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"wedding-rsvp/internal/models"
)

// ImportFile is the YAML guest list accepted by Import
//
//	guests:
//	  - name: Ana Silva
//	    email: ana@example.com
//	    phone: "050-123-4567"
//	    group: Bride's family
//	    expected_attendees: 3
type ImportFile struct {
	Guests []models.GuestInput `yaml:"guests"`
}

// ParseImport decodes a YAML guest list, rejecting unknown keys
func ParseImport(r io.Reader) ([]models.GuestInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f ImportFile
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse guest list: %w", err)
	}
	return f.Guests, nil
}

// ImportResult reports how an import went
type ImportResult struct {
	Added  []models.Guest
	Failed map[int]error
}

// Import adds every entry, collecting per-row failures by index instead of
// stopping at the first one.
func (s *Service) Import(ctx context.Context, organizerID uuid.UUID, inputs []models.GuestInput) ImportResult {
	res := ImportResult{Failed: map[int]error{}}
	for i, in := range inputs {
		g, err := s.Add(ctx, organizerID, in)
		if err != nil {
			res.Failed[i] = err
			s.logger.Warn().Err(err).Int("row", i+1).Msg("Skipping guest")
			continue
		}
		res.Added = append(res.Added, *g)
	}
	return res
}

// Package importer loads batches of prospect rows into the lead store.
package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/ports"
	"power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/platform/apperr"
	"power_dialer_backend/platform/phone"
	"power_dialer_backend/platform/sanitize"
	"power_dialer_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	// MaxRows caps a single import request.
	MaxRows = 5000
	// chunkSize bounds how many inserts go into one batch round trip.
	chunkSize = 450
)

// Row is one prospect as delivered by the upload.
type Row struct {
	BusinessName   string `json:"businessName" validate:"required,max=200"`
	ContactName    string `json:"contactName" validate:"max=200"`
	Phone          string `json:"phone" validate:"required,max=40"`
	Email          string `json:"email" validate:"omitempty,email"`
	Address        string `json:"address" validate:"max=300"`
	KGMID          string `json:"kgmid" validate:"max=100"`
	Timezone       string `json:"timezone" validate:"omitempty,iana_tz"`
	UTCOffsetHours int    `json:"utcOffsetHours" validate:"utc_offset"`
	Campaign       string `json:"campaign" validate:"max=50"`
}

// Result summarizes an import.
type Result struct {
	Imported   int      `json:"imported"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors"`
}

// Store is the lead store surface the importer writes through.
type Store interface {
	FindExistingContacts(ctx context.Context, phones []string, kgmids []string) (repository.ContactMatches, error)
	InsertBatch(ctx context.Context, leads []repository.Lead) (int, error)
}

// Importer deduplicates rows on phone and kgmid and inserts the rest as NEW leads.
type Importer struct {
	store           Store
	campaigns       ports.CampaignDirectory
	val             *validator.Validator
	region          string
	defaultCampaign string
}

// New creates an importer. region is used for numbers without a country code.
// campaigns may be nil, in which case campaign ids are not checked.
func New(store Store, campaigns ports.CampaignDirectory, val *validator.Validator, region, defaultCampaign string) *Importer {
	if region == "" {
		region = phone.DefaultRegion
	}
	if defaultCampaign == "" {
		defaultCampaign = "wave1"
	}
	return &Importer{store: store, campaigns: campaigns, val: val, region: region, defaultCampaign: defaultCampaign}
}

// Import validates rows, drops duplicates and inserts the remainder at now.
// Invalid rows are reported in Result.Errors and do not abort the import.
func (im *Importer) Import(ctx context.Context, rows []Row, now time.Time) (Result, error) {
	if len(rows) == 0 {
		return Result{}, apperr.Validation("rows array is required")
	}
	if len(rows) > MaxRows {
		return Result{}, apperr.Validation(fmt.Sprintf("Max %d rows per import", MaxRows))
	}

	result := Result{Errors: []string{}}
	prepared := make([]repository.Lead, 0, len(rows))
	phones := make([]string, 0, len(rows))
	kgmids := make([]string, 0, len(rows))
	known := make(map[string]bool)

	for i, row := range rows {
		// rows in one upload keep their upload order through created_at
		lead, err := im.toLead(row, now.Add(time.Duration(i)*time.Microsecond))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", i+1, err.Error()))
			continue
		}
		ok, err := im.campaignExists(ctx, lead.CampaignID, known)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: unknown campaign %q", i+1, lead.CampaignID))
			continue
		}
		prepared = append(prepared, lead)
		phones = append(phones, lead.Phone)
		if lead.KGMID != nil {
			kgmids = append(kgmids, *lead.KGMID)
		}
	}
	if len(prepared) == 0 {
		return result, nil
	}

	existing, err := im.store.FindExistingContacts(ctx, phones, kgmids)
	if err != nil {
		return Result{}, err
	}
	seenPhones := existing.Phones
	if seenPhones == nil {
		seenPhones = map[string]bool{}
	}
	seenKGMIDs := existing.KGMIDs
	if seenKGMIDs == nil {
		seenKGMIDs = map[string]bool{}
	}

	chunk := make([]repository.Lead, 0, chunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		inserted, err := im.store.InsertBatch(ctx, chunk)
		if err != nil {
			return err
		}
		result.Imported += inserted
		// rows inserted concurrently by another import surface as conflicts here
		result.Duplicates += len(chunk) - inserted
		chunk = chunk[:0]
		return nil
	}

	for _, lead := range prepared {
		kgmid := ""
		if lead.KGMID != nil {
			kgmid = *lead.KGMID
		}
		if seenPhones[lead.Phone] || (kgmid != "" && seenKGMIDs[kgmid]) {
			result.Duplicates++
			continue
		}
		seenPhones[lead.Phone] = true
		if kgmid != "" {
			seenKGMIDs[kgmid] = true
		}

		chunk = append(chunk, lead)
		if len(chunk) >= chunkSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	return result, nil
}

func (im *Importer) campaignExists(ctx context.Context, id string, known map[string]bool) (bool, error) {
	if im.campaigns == nil {
		return true, nil
	}
	if ok, seen := known[id]; seen {
		return ok, nil
	}
	ok, err := im.campaigns.CampaignExists(ctx, id)
	if err != nil {
		return false, err
	}
	known[id] = ok
	return ok, nil
}

func (im *Importer) toLead(row Row, now time.Time) (repository.Lead, error) {
	row = trimRow(row)
	if im.val != nil {
		if err := im.val.Struct(row); err != nil {
			return repository.Lead{}, err
		}
	}

	normalized, err := phone.ParseE164(row.Phone, im.region)
	if err != nil {
		return repository.Lead{}, err
	}

	campaign := row.Campaign
	if campaign == "" {
		campaign = im.defaultCampaign
	}

	created := now.UTC()
	return repository.Lead{
		ID:             uuid.New(),
		BusinessName:   sanitize.Text(row.BusinessName),
		ContactName:    sanitize.Text(row.ContactName),
		Phone:          normalized,
		Email:          optional(row.Email),
		Address:        optional(sanitize.Text(row.Address)),
		KGMID:          optional(row.KGMID),
		Timezone:       row.Timezone,
		UTCOffsetHours: row.UTCOffsetHours,
		Status:         domain.StatusNew,
		CampaignID:     campaign,
		CreatedAt:      created,
		UpdatedAt:      created,
	}, nil
}

func trimRow(row Row) Row {
	row.BusinessName = strings.TrimSpace(row.BusinessName)
	row.ContactName = strings.TrimSpace(row.ContactName)
	row.Phone = strings.TrimSpace(row.Phone)
	row.Email = strings.TrimSpace(row.Email)
	row.Address = strings.TrimSpace(row.Address)
	row.KGMID = strings.TrimSpace(row.KGMID)
	row.Timezone = strings.TrimSpace(row.Timezone)
	row.Campaign = strings.TrimSpace(row.Campaign)
	return row
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
